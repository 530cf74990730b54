// Package models defines the core data structures shared by the client
// state layer and the reference API server.
package models

// Role identifies what kind of account a user holds.
type Role string

const (
	// RoleNone is an authenticated account without a specific role.
	RoleNone Role = "none"
	// RolePatient is a patient account.
	RolePatient Role = "patient"
	// RoleDoctor is a doctor account; doctors own an editable profile.
	RoleDoctor Role = "doctor"
	// RoleAdmin is an administrator account.
	RoleAdmin Role = "admin"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleNone, RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

// User is the account record returned by the login exchange.
type User struct {
	// ID is the unique identifier for the user.
	ID string `json:"_id"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login e-mail.
	Email string `json:"email"`
	// Role mirrors the account role.
	Role Role `json:"role"`
	// Photo is an optional avatar URL.
	Photo string `json:"photo,omitempty"`
	// PasswordHash is the bcrypt hash; never serialized.
	PasswordHash []byte `json:"-"`
}

// Qualification is one entry of the qualifications list.
type Qualification struct {
	StartingDate string `json:"startingDate"`
	EndingDate   string `json:"endingDate"`
	Degree       string `json:"degree"`
	University   string `json:"university"`
}

// Experience is one entry of the experiences list.
type Experience struct {
	StartingDate string `json:"startingDate"`
	EndingDate   string `json:"endingDate"`
	Position     string `json:"position"`
	Hospital     string `json:"hospital"`
}

// TimeSlot is one entry of the time slots list.
type TimeSlot struct {
	Day          string `json:"day"`
	StartingTime string `json:"startingTime"`
	EndingTime   string `json:"endingTime"`
}

// DoctorProfile is the editable doctor record. Scalars may be empty while
// editing; list order is insertion order.
type DoctorProfile struct {
	ID             string          `json:"_id,omitempty"`
	Name           string          `json:"name"`
	Phone          string          `json:"phone"`
	Email          string          `json:"email"`
	Bio            string          `json:"bio" validate:"max=100"`
	Gender         string          `json:"gender" validate:"omitempty,oneof=male female other"`
	Specialization string          `json:"specialization"`
	TicketPrice    float64         `json:"ticketPrice" validate:"gte=0"`
	About          string          `json:"about"`
	Photo          string          `json:"photo"`
	Qualifications []Qualification `json:"qualifications"`
	Experiences    []Experience    `json:"experiences"`
	TimeSlots      []TimeSlot      `json:"timeSlots"`
}

// FAQ is a single static question/answer pair.
type FAQ struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Response is the JSON envelope every API endpoint answers with.
type Response[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

// FAQs is the read-only reference list served by the API and shown by the client.
var FAQs = []FAQ{
	{
		Question: "What is your medical care?",
		Answer:   "We connect patients with verified doctors and let them book consultations online.",
	},
	{
		Question: "What happens if I need to go to a hospital?",
		Answer:   "Your doctor will refer you and share your visit notes with the receiving hospital.",
	},
	{
		Question: "What can I expect at my first appointment?",
		Answer:   "A short intake interview, a review of your history and a plan for the next steps.",
	},
	{
		Question: "Can I visit your medical office?",
		Answer:   "Yes. Time slots listed on each doctor's profile are available for in-person visits.",
	},
	{
		Question: "How do I change my booking?",
		Answer:   "Cancel the existing booking from your account and pick a new time slot.",
	},
}
