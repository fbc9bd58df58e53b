// Package models defines session state structures for VisaDesk conversations.
package models

import "time"

// FlowType identifies one of the service conversation flows a user can select
// from the main menu.
type FlowType string

const (
	FlowCanadaPR     FlowType = "canada_pr"
	FlowStudentVisa  FlowType = "student_visa"
	FlowWorkPermit   FlowType = "work_permit"
	FlowTouristVisa  FlowType = "tourist_visa"
	FlowBusinessVisa FlowType = "business_visa"
	FlowEligibility  FlowType = "eligibility_check"
	FlowHandoff      FlowType = "handoff"
)

// DisplayName returns the human-readable flow name used in lead records and
// operator notifications.
func (f FlowType) DisplayName() string {
	switch f {
	case FlowCanadaPR:
		return "Canada PR"
	case FlowStudentVisa:
		return "Student Visa"
	case FlowWorkPermit:
		return "Work Permit"
	case FlowTouristVisa:
		return "Tourist Visa"
	case FlowBusinessVisa:
		return "Business Visa"
	case FlowEligibility:
		return "Eligibility Check"
	case FlowHandoff:
		return "Human Handoff"
	default:
		return string(f)
	}
}

// IsValidFlowType checks if the given flow type is one of the supported flows.
func IsValidFlowType(f FlowType) bool {
	switch f {
	case FlowCanadaPR, FlowStudentVisa, FlowWorkPermit, FlowTouristVisa,
		FlowBusinessVisa, FlowEligibility, FlowHandoff:
		return true
	default:
		return false
	}
}

// StepType is the coarse phase of a conversation.
type StepType string

const (
	// StepNone means no flow has been selected yet.
	StepNone StepType = ""
	// StepCollectPersonal means the shared personal-details sub-flow is active.
	StepCollectPersonal StepType = "collect_personal"
	// StepService means the selected service flow is active.
	StepService StepType = "service"
)

// StageType names the current stage inside a service flow's own sequence.
// The empty value means the flow has not asked its first question yet.
type StageType string

const (
	StageNone           StageType = ""
	StageAskEligibility StageType = "ask_eligibility"
	StageIELTS          StageType = "ielts"
	StageMessage        StageType = "message"
	StageCountry        StageType = "country"
	StageCourse         StageType = "course"
	StageScore          StageType = "score"
	StageProfession     StageType = "profession"
	StageDays           StageType = "days"
	StageIdea           StageType = "idea"
	StageInvestment     StageType = "investment"
	StageAge            StageType = "age"
	StageEducation      StageType = "edu"
	StageExperience     StageType = "exp"
)

// PersonalField names one of the fixed personal-detail fields collected before
// any service flow begins.
type PersonalField string

const (
	FieldName       PersonalField = "name"
	FieldPhone      PersonalField = "phone"
	FieldEmail      PersonalField = "email"
	FieldAge        PersonalField = "age"
	FieldCity       PersonalField = "city"
	FieldCountry    PersonalField = "country"
	FieldEducation  PersonalField = "education"
	FieldExperience PersonalField = "experience"
)

// DataKey is a key for flow-specific answers stored in ServiceData.
type DataKey string

const (
	DataKeyIELTS      DataKey = "ielts"
	DataKeyMessage    DataKey = "message"
	DataKeyCountry    DataKey = "country"
	DataKeyCourse     DataKey = "course"
	DataKeyProfession DataKey = "profession"
	DataKeyDays       DataKey = "days"
	DataKeyIdea       DataKey = "idea"
	DataKeyInvestment DataKey = "investment"
	DataKeyAge        DataKey = "age"
	DataKeyEducation  DataKey = "education"
	DataKeyExperience DataKey = "experience"
)

// ServiceData holds the selected service flow's stage cursor and its collected
// answers.
type ServiceData struct {
	Stage StageType          `json:"stage,omitempty"`
	Data  map[DataKey]string `json:"data,omitempty"`
}

// Set stores an answer, allocating the map on first use.
func (d *ServiceData) Set(key DataKey, value string) {
	if d.Data == nil {
		d.Data = make(map[DataKey]string)
	}
	d.Data[key] = value
}

// Get returns the stored answer for key, or "" when absent.
func (d *ServiceData) Get(key DataKey) string {
	if d.Data == nil {
		return ""
	}
	return d.Data[key]
}

// Session is the durable per-conversation state record. One session exists per
// chat identifier; it is loaded at the start of every turn and saved after
// every mutation.
type Session struct {
	Flow          FlowType                 `json:"flow,omitempty"`
	Step          StepType                 `json:"step,omitempty"`
	Personal      map[PersonalField]string `json:"personal,omitempty"`
	PersonalIndex int                      `json:"personal_index"`
	Service       ServiceData              `json:"service"`
	Greeted       bool                     `json:"greeted"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// NewSession returns a session in its default state: no flow selected, nothing
// collected, not yet greeted.
func NewSession() *Session {
	now := time.Now().UTC()
	return &Session{
		Personal:  make(map[PersonalField]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetPersonal stores a validated personal-detail value, allocating the map on
// first use.
func (s *Session) SetPersonal(field PersonalField, value string) {
	if s.Personal == nil {
		s.Personal = make(map[PersonalField]string)
	}
	s.Personal[field] = value
	s.UpdatedAt = time.Now().UTC()
}

// ClearFlow resets the flow-specific portion of the session after a service
// flow completes. Personal details are retained for subsequent flows.
func (s *Session) ClearFlow() {
	s.Flow = ""
	s.Step = StepNone
	s.Service = ServiceData{}
	s.UpdatedAt = time.Now().UTC()
}

// ClearPersonal resets the personal-details sub-flow back to its first field.
func (s *Session) ClearPersonal() {
	s.Personal = make(map[PersonalField]string)
	s.PersonalIndex = 0
	s.UpdatedAt = time.Now().UTC()
}

// MergedData returns personal details merged with service answers, service
// answers winning on key collisions. Used to build lead records and feed the
// eligibility evaluator.
func (s *Session) MergedData() map[string]string {
	merged := make(map[string]string, len(s.Personal)+len(s.Service.Data))
	for k, v := range s.Personal {
		merged[string(k)] = v
	}
	for k, v := range s.Service.Data {
		merged[string(k)] = v
	}
	return merged
}
