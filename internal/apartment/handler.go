package apartment

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
	"github.com/roomatch/roomatch/pkg/middleware"
	"github.com/roomatch/roomatch/pkg/response"
)

// Handler handles HTTP requests for apartment operations
type Handler struct {
	service *Service
}

// NewHandler creates a new apartment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns the router for apartment endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Post("/", h.Create)
	r.Get("/", h.List)
	r.Get("/tags", h.Tags)
	r.Get("/{id}", h.GetByID)

	// Interested list
	r.Post("/{id}/interested", h.AddInterested)
	r.Delete("/{id}/interested", h.RemoveInterested)

	// Roommate groups
	r.Post("/{id}/groups", h.CreateGroup)
	r.Put("/{id}/groups/{groupId}/members/{memberId}", h.UpdateMemberStatus)
	r.Post("/{id}/groups/{groupId}/sign", h.SignGroup)

	// Visits
	r.Post("/{id}/visits", h.AddVisit)
	r.Put("/{id}/visits/{visitId}", h.UpdateVisit)

	// Comments and subscriptions
	r.Post("/{id}/comments", h.AddComment)
	r.Post("/{id}/subscribers", h.Subscribe)
	r.Delete("/{id}/subscribers", h.Unsubscribe)

	return r
}

// respondError maps domain errors to HTTP responses
func respondError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, ErrApartmentNotFound),
		errors.Is(err, ErrGroupNotFound),
		errors.Is(err, ErrVisitNotFound),
		errors.Is(err, group.ErrMemberNotFound):
		response.NotFound(w, err.Error())
	case errors.Is(err, ErrInvalidListing),
		errors.Is(err, ErrGroupCreationFailed),
		errors.Is(err, ErrUnsupportedStatus),
		errors.Is(err, ErrSchedulePast),
		errors.Is(err, ErrInvalidComment):
		response.BadRequest(w, err.Error())
	case errors.Is(err, group.ErrInvalidSigner),
		errors.Is(err, visit.ErrUnauthorized),
		errors.Is(err, visit.ErrOwnerVisit):
		response.Forbidden(w, err.Error())
	case errors.Is(err, ErrVisitConflict),
		errors.Is(err, ErrVersionConflict),
		errors.Is(err, group.ErrSignFailed),
		errors.Is(err, group.ErrGroupSigned),
		errors.Is(err, visit.ErrIllegalTransition):
		response.Conflict(w, err.Error())
	default:
		response.InternalError(w, fallback)
	}
}

// Create handles POST /apartments
// @Summary      Publish a new apartment listing
// @Description  Create a new apartment owned by the current user
// @Tags         apartments
// @Accept       json
// @Produce      json
// @Param        request body CreateApartmentRequest true "Listing fields"
// @Success      201 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /apartments [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ownerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req CreateApartmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	apartment, err := h.service.Create(r.Context(), ownerID, &req)
	if err != nil {
		respondError(w, err, "Failed to create apartment")
		return
	}

	response.JSON(w, http.StatusCreated, apartment.ToResponse())
}

// List handles GET /apartments
// @Summary      List apartments
// @Description  Get apartments, optionally filtered by owner, price range, roommates range and entrance date
// @Tags         apartments
// @Produce      json
// @Param        owner query string false "Owner user id"
// @Param        min_price query int false "Minimum price"
// @Param        max_price query int false "Maximum price"
// @Param        min_roommates query int false "Minimum required roommates"
// @Param        max_roommates query int false "Maximum required roommates"
// @Param        entrance_before query int false "Latest entrance date (epoch ms)"
// @Success      200 {object} response.APIResponse{data=[]ApartmentResponse}
// @Router       /apartments [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{OwnerID: q.Get("owner")}
	f.MinPrice = intParam(q.Get("min_price"))
	f.MaxPrice = intParam(q.Get("max_price"))
	f.MinRoommates = intParam(q.Get("min_roommates"))
	f.MaxRoommates = intParam(q.Get("max_roommates"))
	if v := q.Get("entrance_before"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil {
			f.EntranceBefore = &ms
		}
	}

	apartments, err := h.service.List(r.Context(), f)
	if err != nil {
		respondError(w, err, "Failed to list apartments")
		return
	}

	resp := make([]*ApartmentResponse, len(apartments))
	for i, a := range apartments {
		resp[i] = a.ToResponse()
	}
	response.JSON(w, http.StatusOK, resp)
}

// Tags handles GET /apartments/tags
// @Summary      List supported listing tags
// @Tags         apartments
// @Produce      json
// @Success      200 {object} response.APIResponse{data=[]Tag}
// @Router       /apartments/tags [get]
func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, SupportedTags())
}

// GetByID handles GET /apartments/{id}
// @Summary      Get apartment by ID
// @Tags         apartments
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /apartments/{id} [get]
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	apartment, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, err, "Failed to get apartment")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// AddInterested handles POST /apartments/{id}/interested
// @Summary      Mark interest in an apartment
// @Description  Add the current user to the apartment's interested list
// @Tags         apartments
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /apartments/{id}/interested [post]
func (h *Handler) AddInterested(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	apartment, err := h.service.AddInterested(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondError(w, err, "Failed to add interested user")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// RemoveInterested handles DELETE /apartments/{id}/interested
// @Summary      Withdraw interest in an apartment
// @Description  Remove the current user from the interested list; any group containing the user is deleted
// @Tags         apartments
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      404 {object} response.APIResponse
// @Router       /apartments/{id}/interested [delete]
func (h *Handler) RemoveInterested(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	apartment, err := h.service.RemoveInterested(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondError(w, err, "Failed to remove interested user")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// CreateGroup handles POST /apartments/{id}/groups
// @Summary      Create a roommate group
// @Description  Form a group from an explicit member list or from an anchor user via the default matching rule
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        request body CreateGroupRequest true "Member selection"
// @Success      201 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /apartments/{id}/groups [post]
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	apartment, err := h.service.CreateGroup(r.Context(), chi.URLParam(r, "id"), &req)
	if err != nil {
		respondError(w, err, "Failed to create group")
		return
	}
	response.JSON(w, http.StatusCreated, apartment.ToResponse())
}

// UpdateMemberStatus handles PUT /apartments/{id}/groups/{groupId}/members/{memberId}
// @Summary      Answer a group invitation
// @Description  Set a member's status (PENDING, ACCEPTED or DECLINED) in a group
// @Tags         groups
// @Accept       json
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        groupId path string true "Group ID"
// @Param        memberId path string true "Member user ID"
// @Param        request body UpdateMemberStatusRequest true "New status"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      404 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /apartments/{id}/groups/{groupId}/members/{memberId} [put]
func (h *Handler) UpdateMemberStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateMemberStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	apartment, err := h.service.UpdateMemberStatus(
		r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "groupId"),
		chi.URLParam(r, "memberId"),
		req.Status,
	)
	if err != nil {
		respondError(w, err, "Failed to update member status")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// SignGroup handles POST /apartments/{id}/groups/{groupId}/sign
// @Summary      Sign a group
// @Description  Finalize a fully accepted group; only the apartment owner may sign
// @Tags         groups
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        groupId path string true "Group ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /apartments/{id}/groups/{groupId}/sign [post]
func (h *Handler) SignGroup(w http.ResponseWriter, r *http.Request) {
	signerID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	apartment, err := h.service.SignGroup(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "groupId"), signerID)
	if err != nil {
		respondError(w, err, "Failed to sign group")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// AddVisit handles POST /apartments/{id}/visits
// @Summary      Request a visit
// @Description  Book a visit for the current user; a user may hold one future non-canceled visit per apartment
// @Tags         visits
// @Accept       json
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        request body AddVisitRequest true "Requested time"
// @Success      201 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      409 {object} response.APIResponse
// @Router       /apartments/{id}/visits [post]
func (h *Handler) AddVisit(w http.ResponseWriter, r *http.Request) {
	requesterID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AddVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	apartment, err := h.service.AddVisit(r.Context(), chi.URLParam(r, "id"), requesterID, req.ScheduledTo)
	if err != nil {
		respondError(w, err, "Failed to add visit")
		return
	}
	response.JSON(w, http.StatusCreated, apartment.ToResponse())
}

// UpdateVisit handles PUT /apartments/{id}/visits/{visitId}
// @Summary      Update a visit
// @Description  Move a visit to a new status and time; only the owner or the requester may act
// @Tags         visits
// @Accept       json
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        visitId path string true "Visit ID"
// @Param        request body UpdateVisitRequest true "Target status and time"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      403 {object} response.APIResponse
// @Failure      409 {object} response.APIResponse
// @Router       /apartments/{id}/visits/{visitId} [put]
func (h *Handler) UpdateVisit(w http.ResponseWriter, r *http.Request) {
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req UpdateVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	// status and schedule always move together, so a body without a
	// schedule would silently rewrite the visit to epoch 0
	if req.ScheduledTo <= 0 {
		response.BadRequest(w, "scheduled_to is required")
		return
	}

	apartment, err := h.service.UpdateVisit(
		r.Context(),
		chi.URLParam(r, "id"),
		chi.URLParam(r, "visitId"),
		actorID,
		req.Status,
		req.ScheduledTo,
	)
	if err != nil {
		respondError(w, err, "Failed to update visit")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// AddComment handles POST /apartments/{id}/comments
// @Summary      Comment on a listing
// @Tags         apartments
// @Accept       json
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Param        request body AddCommentRequest true "Comment text"
// @Success      201 {object} response.APIResponse{data=ApartmentResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /apartments/{id}/comments [post]
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	authorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req AddCommentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	apartment, err := h.service.AddComment(r.Context(), chi.URLParam(r, "id"), authorID, req.Text)
	if err != nil {
		respondError(w, err, "Failed to add comment")
		return
	}
	response.JSON(w, http.StatusCreated, apartment.ToResponse())
}

// Subscribe handles POST /apartments/{id}/subscribers
// @Summary      Subscribe to listing updates
// @Tags         apartments
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Router       /apartments/{id}/subscribers [post]
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	apartment, err := h.service.Subscribe(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondError(w, err, "Failed to subscribe")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

// Unsubscribe handles DELETE /apartments/{id}/subscribers
// @Summary      Unsubscribe from listing updates
// @Tags         apartments
// @Produce      json
// @Param        id path string true "Apartment ID"
// @Success      200 {object} response.APIResponse{data=ApartmentResponse}
// @Router       /apartments/{id}/subscribers [delete]
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "Authentication required")
		return
	}

	apartment, err := h.service.Unsubscribe(r.Context(), chi.URLParam(r, "id"), userID)
	if err != nil {
		respondError(w, err, "Failed to unsubscribe")
		return
	}
	response.JSON(w, http.StatusOK, apartment.ToResponse())
}

func intParam(v string) *int {
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}
