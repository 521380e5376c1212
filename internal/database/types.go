package database

import (
	"strings"
	"time"
)

// Partition identifies which report pool a report belongs to. Every report
// lands in exactly one partition, determined by the filer's role at
// submission time, and matching always runs against the opposite partition.
type Partition string

const (
	PartitionCivilian Partition = "civilian"
	PartitionPolice   Partition = "police"
)

// Valid reports whether p is a known partition tag.
func (p Partition) Valid() bool {
	return p == PartitionCivilian || p == PartitionPolice
}

// Opposite returns the partition a report in p is matched against.
func (p Partition) Opposite() Partition {
	if p == PartitionPolice {
		return PartitionCivilian
	}
	return PartitionPolice
}

// Role is the account type fixed at registration.
type Role string

const (
	RoleIndividual Role = "individual"
	RoleNGO        Role = "ngo"
	RolePolice     Role = "police"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleIndividual || r == RoleNGO || r == RolePolice
}

// PartitionFor returns the partition a filer with role r writes into.
// Police reports land in the police pool, everyone else's in the civilian pool.
func PartitionFor(r Role) Partition {
	if r == RolePolice {
		return PartitionPolice
	}
	return PartitionCivilian
}

// Account is a registered user. The password hash is opaque to everything
// except the auth handlers. Reports reference accounts by ID, never embed them.
type Account struct {
	ID            string    `json:"id"`
	Username      string    `json:"username"`
	PasswordHash  string    `json:"-"`
	FullName      string    `json:"fullname"`
	Role          Role      `json:"role"`
	Email         string    `json:"email"`
	ContactNumber string    `json:"contact_number"`
	Address       string    `json:"address"`
	CreatedAt     time.Time `json:"created_at"`
}

// Report is a filed missing/found person report. Reports are immutable once
// created - there is no update or delete path.
type Report struct {
	ID               string    `json:"id"`
	Partition        Partition `json:"partition"`
	FullName         string    `json:"full_name"`
	ApproximateAge   int       `json:"approximate_age"`
	Gender           string    `json:"gender"`
	LastSeenLocation string    `json:"last_seen_location"`
	AddressDetails   string    `json:"address_details"`
	ContactInfo      string    `json:"contact_info"`
	PersonStatus     string    `json:"person_status"`
	Photo            string    `json:"photo"`
	AccountID        string    `json:"account_id"`
	CreatedAt        time.Time `json:"created_at"`
}

// Validate checks that all required report fields are present and well-formed.
// Returns a *ValidationError carrying per-field detail, or nil.
func (r *Report) Validate() error {
	v := &ValidationError{Fields: map[string]string{}}

	required := map[string]string{
		"full_name":          r.FullName,
		"gender":             r.Gender,
		"last_seen_location": r.LastSeenLocation,
		"address_details":    r.AddressDetails,
		"contact_info":       r.ContactInfo,
		"person_status":      r.PersonStatus,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			v.Fields[field] = "is required"
		}
	}
	if r.ApproximateAge < 0 {
		v.Fields["approximate_age"] = "must be non-negative"
	}
	if r.Photo == "" {
		v.Fields["photo"] = "is required"
	}
	if !r.Partition.Valid() {
		v.Fields["partition"] = "must be civilian or police"
	}
	if r.AccountID == "" {
		v.Fields["account_id"] = "is required"
	}

	if len(v.Fields) > 0 {
		return v
	}
	return nil
}
