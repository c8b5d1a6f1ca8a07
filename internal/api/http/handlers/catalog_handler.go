package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/sla-ticket-service/internal/api/dto"
	"github.com/spec-kit/sla-ticket-service/internal/domain"
	"github.com/spec-kit/sla-ticket-service/internal/service"
	apperrors "github.com/spec-kit/sla-ticket-service/pkg/util/errorutil"
)

// CatalogHandler exposes agents, categories, SLA policies and users.
type CatalogHandler struct {
	service *service.CatalogService
}

// NewCatalogHandler constructs handler.
func NewCatalogHandler(catalogService *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: catalogService}
}

// CreateAgent POST /api/agents.
func (h *CatalogHandler) CreateAgent(c *fiber.Ctx) error {
	var req dto.CreateAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	agent, err := h.service.CreateAgent(c.UserContext(), req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": agentResponse(agent)})
}

// ListAgents GET /api/agents?active=true.
func (h *CatalogHandler) ListAgents(c *fiber.Ctx) error {
	filters := service.AgentListFilters{
		Limit:  parseInt(c.Query("page_size"), 100),
		Offset: 0,
	}
	if page := parseInt(c.Query("page"), 1); page > 1 {
		filters.Offset = (page - 1) * filters.Limit
	}
	if raw := strings.TrimSpace(c.Query("active")); raw != "" {
		active := strings.EqualFold(raw, "true")
		filters.Active = &active
	}
	agents, err := h.service.ListAgents(c.UserContext(), filters)
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// ListActiveAgents GET /api/agents/active.
func (h *CatalogHandler) ListActiveAgents(c *fiber.Ctx) error {
	active := true
	agents, err := h.service.ListAgents(c.UserContext(), service.AgentListFilters{Active: &active})
	if err != nil {
		return err
	}
	items := make([]dto.AgentResponse, 0, len(agents))
	for i := range agents {
		items = append(items, agentResponse(&agents[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetAgent GET /api/agents/:id.
func (h *CatalogHandler) GetAgent(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	agent, err := h.service.GetAgent(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

// SetAgentActive PUT /api/agents/:id/active.
func (h *CatalogHandler) SetAgentActive(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	var req dto.SetAgentActiveRequest
	if err := c.BodyParser(&req); err != nil || req.Active == nil {
		return apperrors.NewValidationError("active flag required", nil)
	}
	agent, err := h.service.SetAgentActive(c.UserContext(), id, *req.Active)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": agentResponse(agent)})
}

// CreateCategory POST /api/categories.
func (h *CatalogHandler) CreateCategory(c *fiber.Ctx) error {
	var req dto.CreateCategoryRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.SLAID != nil && strings.TrimSpace(*req.SLAID) != "" {
		if err := validUUID(map[string]string{"sla_id": *req.SLAID}); err != nil {
			return err
		}
	}
	category, err := h.service.CreateCategory(c.UserContext(), req.Name, req.Description, req.SLAID)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": categoryResponse(category)})
}

// ListCategories GET /api/categories.
func (h *CatalogHandler) ListCategories(c *fiber.Ctx) error {
	categories, err := h.service.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.CategoryResponse, 0, len(categories))
	for i := range categories {
		items = append(items, categoryResponse(&categories[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetCategory GET /api/categories/:id.
func (h *CatalogHandler) GetCategory(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	category, err := h.service.GetCategory(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": categoryResponse(category)})
}

// CreateSLA POST /api/slas.
func (h *CatalogHandler) CreateSLA(c *fiber.Ctx) error {
	var req dto.CreateSLARequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	sla, err := h.service.CreateSLA(c.UserContext(), req.Name, req.Description, req.ResponseTimeHours, req.ResolutionTimeHours)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": slaResponse(sla)})
}

// ListSLAs GET /api/slas.
func (h *CatalogHandler) ListSLAs(c *fiber.Ctx) error {
	slas, err := h.service.ListSLAs(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.SLAResponse, 0, len(slas))
	for i := range slas {
		items = append(items, slaResponse(&slas[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetSLA GET /api/slas/:id.
func (h *CatalogHandler) GetSLA(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	sla, err := h.service.GetSLA(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaResponse(sla)})
}

// CreateUser POST /api/users.
func (h *CatalogHandler) CreateUser(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.service.CreateUser(c.UserContext(), req.Name, req.Email)
	if err != nil {
		return err
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"data": userResponse(user)})
}

// ListUsers GET /api/users.
func (h *CatalogHandler) ListUsers(c *fiber.Ctx) error {
	users, err := h.service.ListUsers(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, userResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetUser GET /api/users/:id.
func (h *CatalogHandler) GetUser(c *fiber.Ctx) error {
	id, err := idParam(c, "id")
	if err != nil {
		return err
	}
	user, err := h.service.GetUser(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": userResponse(user)})
}

func agentResponse(agent *domain.Agent) dto.AgentResponse {
	return dto.AgentResponse{
		ID:        agent.ID,
		Name:      agent.Name,
		Email:     agent.Email,
		Active:    agent.Active,
		CreatedAt: agent.CreatedAt,
		UpdatedAt: agent.UpdatedAt,
	}
}

func categoryResponse(category *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:          category.ID,
		Name:        category.Name,
		Description: category.Description,
		SLAID:       category.SLAID,
		CreatedAt:   category.CreatedAt,
	}
}

func slaResponse(sla *domain.SLAPolicy) dto.SLAResponse {
	return dto.SLAResponse{
		ID:                  sla.ID,
		Name:                sla.Name,
		Description:         sla.Description,
		ResponseTimeHours:   sla.ResponseTimeHours,
		ResolutionTimeHours: sla.ResolutionTimeHours,
		CreatedAt:           sla.CreatedAt,
	}
}

func userResponse(user *domain.User) dto.UserResponse {
	return dto.UserResponse{
		ID:        user.ID,
		Name:      user.Name,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	}
}
