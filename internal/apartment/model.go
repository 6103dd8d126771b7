package apartment

import (
	"github.com/roomatch/roomatch/internal/group"
	"github.com/roomatch/roomatch/internal/visit"
)

// Address is the listing's street address. Free-text geocoding is handled
// outside this service.
type Address struct {
	State           string `json:"state"`
	City            string `json:"city"`
	Street          string `json:"street"`
	Number          int    `json:"number"`
	ApartmentNumber int    `json:"apartment_number,omitempty"`
}

// Comment is a public note left on a listing, newest first
type Comment struct {
	AuthorID  string `json:"author_id"`
	CreatedAt int64  `json:"created_at"` // epoch ms
	Text      string `json:"text"`
}

// Apartment is the aggregate root. The whole document, including its
// nested groups and visits, is persisted and versioned as one unit;
// every invariant spanning the nested collections is checked in memory
// before the single write.
type Apartment struct {
	ID        string `json:"id"`
	OwnerID   string `json:"owner_id"`
	CreatedAt int64  `json:"created_at"` // epoch ms

	Price         int      `json:"price"`
	EntranceDate  int64    `json:"entrance_date"` // epoch ms
	Address       Address  `json:"address"`
	NumberOfRooms int      `json:"number_of_rooms,omitempty"`
	Floor         int      `json:"floor,omitempty"`
	TotalFloors   int      `json:"total_floors,omitempty"`
	Area          int      `json:"area,omitempty"`
	Description   string   `json:"description,omitempty"`
	Tags          []int    `json:"tags,omitempty"`
	Images        []string `json:"images,omitempty"`

	RequiredRoommates int `json:"required_roommates"`
	TotalRoommates    int `json:"total_roommates,omitempty"`

	Interested  []string      `json:"interested"`
	Groups      []group.Group `json:"groups"`
	Visits      []visit.Visit `json:"visits"`
	Comments    []Comment     `json:"comments,omitempty"`
	Subscribers []string      `json:"subscribers,omitempty"`

	// Version is the optimistic concurrency token maintained by the store.
	// It is not part of the document body.
	Version int64 `json:"-"`
}

// IsOwner reports whether userID owns this listing
func (a *Apartment) IsOwner(userID string) bool {
	return userID == a.OwnerID
}

// IsUserInterested reports whether userID is on the interested list
func (a *Apartment) IsUserInterested(userID string) bool {
	return indexOf(a.Interested, userID) >= 0
}

// IsTimeToFormGroup reports whether enough users are interested to fill a
// roommate group.
func (a *Apartment) IsTimeToFormGroup() bool {
	return len(a.Interested) >= a.RequiredRoommates
}

// GroupIndex returns the index of the group with the given id, or -1
func (a *Apartment) GroupIndex(groupID string) int {
	for i, g := range a.Groups {
		if g.ID == groupID {
			return i
		}
	}
	return -1
}

// VisitIndex returns the index of the visit with the given id, or -1
func (a *Apartment) VisitIndex(visitID string) int {
	for i, v := range a.Visits {
		if v.ID == visitID {
			return i
		}
	}
	return -1
}

// IsFutureVisitPlanned reports whether userID has a non-canceled visit
// scheduled strictly after asOf.
func (a *Apartment) IsFutureVisitPlanned(userID string, asOf int64) bool {
	for _, v := range a.Visits {
		if v.RequesterID == userID &&
			v.Status != visit.CancelationStatus() &&
			v.ScheduledTo > asOf {
			return true
		}
	}
	return false
}

// IsSubscriber reports whether userID is subscribed to listing updates
func (a *Apartment) IsSubscriber(userID string) bool {
	return indexOf(a.Subscribers, userID) >= 0
}

func indexOf(ids []string, id string) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}
