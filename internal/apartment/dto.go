package apartment

import (
	"errors"
	"fmt"

	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
)

// ErrInvalidListing marks a create request that failed field validation
var ErrInvalidListing = errors.New("invalid listing")

// CreateApartmentRequest represents the request to publish a new listing
type CreateApartmentRequest struct {
	Price             int      `json:"price"`
	EntranceDate      int64    `json:"entrance_date"`
	Address           Address  `json:"address"`
	NumberOfRooms     int      `json:"number_of_rooms,omitempty"`
	Floor             int      `json:"floor,omitempty"`
	TotalFloors       int      `json:"total_floors,omitempty"`
	Area              int      `json:"area,omitempty"`
	Description       string   `json:"description,omitempty"`
	Tags              []int    `json:"tags,omitempty"`
	Images            []string `json:"images,omitempty"`
	RequiredRoommates int      `json:"required_roommates"`
	TotalRoommates    int      `json:"total_roommates,omitempty"`
}

// Validate checks the listing fields against the schema limits
func (req *CreateApartmentRequest) Validate() error {
	if req.Price < 0 {
		return fmt.Errorf("%w: price must be non-negative", ErrInvalidListing)
	}
	if req.EntranceDate <= 0 {
		return fmt.Errorf("%w: entrance date is required", ErrInvalidListing)
	}
	if req.RequiredRoommates < 1 || req.RequiredRoommates > 10 {
		return fmt.Errorf("%w: required roommates must be between 1 and 10", ErrInvalidListing)
	}
	if req.TotalRoommates < 0 || req.TotalRoommates > 11 {
		return fmt.Errorf("%w: total roommates must be between 0 and 11", ErrInvalidListing)
	}
	for _, field := range []struct {
		name, value string
	}{
		{"state", req.Address.State},
		{"city", req.Address.City},
		{"street", req.Address.Street},
	} {
		if len(field.value) < 2 || len(field.value) > 30 {
			return fmt.Errorf("%w: address %s must be between 2 and 30 characters", ErrInvalidListing, field.name)
		}
	}
	if req.Address.Number < 1 || req.Address.Number > 10000 {
		return fmt.Errorf("%w: address number must be between 1 and 10000", ErrInvalidListing)
	}
	if req.Address.ApartmentNumber < 0 || req.Address.ApartmentNumber > 1000 {
		return fmt.Errorf("%w: apartment number must be between 1 and 1000", ErrInvalidListing)
	}
	if req.NumberOfRooms != 0 && (req.NumberOfRooms < 1 || req.NumberOfRooms > 20) {
		return fmt.Errorf("%w: number of rooms must be between 1 and 20", ErrInvalidListing)
	}
	if req.Floor < -2 || req.Floor > 300 {
		return fmt.Errorf("%w: floor must be between -2 and 300", ErrInvalidListing)
	}
	if req.TotalFloors < 0 || req.TotalFloors > 300 {
		return fmt.Errorf("%w: total floors must be between 0 and 300", ErrInvalidListing)
	}
	if req.Area < 0 || req.Area > 1000 {
		return fmt.Errorf("%w: area must be between 0 and 1000", ErrInvalidListing)
	}
	if len(req.Description) > 4096 {
		return fmt.Errorf("%w: description is too long", ErrInvalidListing)
	}
	for _, id := range req.Tags {
		if !IsSupportedTagID(id) {
			return fmt.Errorf("%w: %d is not a supported tag", ErrInvalidListing, id)
		}
	}
	return nil
}

// CreateGroupRequest selects the members of a new roommate group: either
// an explicit ordered list of exactly required_roommates ids, or a single
// anchor id for the default matching rule. Exactly one mode must be set.
type CreateGroupRequest struct {
	Members []string `json:"members,omitempty"`
	Anchor  string   `json:"anchor,omitempty"`
}

// UpdateMemberStatusRequest records a member's answer on an invitation
type UpdateMemberStatusRequest struct {
	Status group.MemberStatus `json:"status"`
}

// AddVisitRequest books a visit at the given time (epoch ms)
type AddVisitRequest struct {
	ScheduledTo int64 `json:"scheduled_to"`
}

// UpdateVisitRequest moves a visit to a new status and time, both together
type UpdateVisitRequest struct {
	Status      visit.Status `json:"status"`
	ScheduledTo int64        `json:"scheduled_to"`
}

// AddCommentRequest posts a comment on a listing
type AddCommentRequest struct {
	Text string `json:"text"`
}

// ApartmentResponse represents the response for an apartment
type ApartmentResponse struct {
	ID                string        `json:"id"`
	OwnerID           string        `json:"owner_id"`
	CreatedAt         int64         `json:"created_at"`
	Price             int           `json:"price"`
	EntranceDate      int64         `json:"entrance_date"`
	Address           Address       `json:"address"`
	NumberOfRooms     int           `json:"number_of_rooms,omitempty"`
	Floor             int           `json:"floor,omitempty"`
	TotalFloors       int           `json:"total_floors,omitempty"`
	Area              int           `json:"area,omitempty"`
	Description       string        `json:"description,omitempty"`
	Tags              []int         `json:"tags,omitempty"`
	Images            []string      `json:"images,omitempty"`
	RequiredRoommates int           `json:"required_roommates"`
	TotalRoommates    int           `json:"total_roommates,omitempty"`
	Interested        []string      `json:"interested"`
	Groups            []group.Group `json:"groups"`
	Visits            []visit.Visit `json:"visits"`
	Comments          []Comment     `json:"comments,omitempty"`
	Subscribers       []string      `json:"subscribers,omitempty"`
	Version           int64         `json:"version"`
}

// ToResponse converts an Apartment model to an ApartmentResponse DTO
func (a *Apartment) ToResponse() *ApartmentResponse {
	return &ApartmentResponse{
		ID:                a.ID,
		OwnerID:           a.OwnerID,
		CreatedAt:         a.CreatedAt,
		Price:             a.Price,
		EntranceDate:      a.EntranceDate,
		Address:           a.Address,
		NumberOfRooms:     a.NumberOfRooms,
		Floor:             a.Floor,
		TotalFloors:       a.TotalFloors,
		Area:              a.Area,
		Description:       a.Description,
		Tags:              a.Tags,
		Images:            a.Images,
		RequiredRoommates: a.RequiredRoommates,
		TotalRoommates:    a.TotalRoommates,
		Interested:        a.Interested,
		Groups:            a.Groups,
		Visits:            a.Visits,
		Comments:          a.Comments,
		Subscribers:       a.Subscribers,
		Version:           a.Version,
	}
}
