package domain

// EventName identifies a domain event published by the platform.
type EventName string

// Event is an ephemeral occurrence handed to every subscriber of its name.
type Event struct {
	Name    EventName      `json:"event"`
	Payload map[string]any `json:"data"`
}

// Admin alerts.
const (
	EventAdminCampaignSubmitted   EventName = "ADMIN_CAMPAIGN_SUBMITTED"
	EventAdminClubVerification    EventName = "ADMIN_CLUB_VERIFICATION_REQUESTED"
	EventAdminRefundFailed        EventName = "ADMIN_REFUND_FAILED"
	EventAdminSecurityAlert       EventName = "ADMIN_SECURITY_ALERT"
	EventAdminDailyDigest         EventName = "ADMIN_DAILY_DIGEST"
	EventAdminSuspiciousDonation  EventName = "ADMIN_SUSPICIOUS_DONATION"
	EventAdminProviderDegradation EventName = "ADMIN_PROVIDER_DEGRADED"
)

// Student lifecycle.
const (
	EventUserWelcome          EventName = "USER_WELCOME"
	EventEmailVerification    EventName = "EMAIL_VERIFICATION"
	EventPasswordReset        EventName = "PASSWORD_RESET"
	EventPasswordChanged      EventName = "PASSWORD_CHANGED"
	EventStudentProfileDone   EventName = "STUDENT_PROFILE_COMPLETED"
	EventStudentJoinedClub    EventName = "STUDENT_JOINED_CLUB"
	EventSecurityLoginAlert   EventName = "SECURITY_LOGIN_ALERT"
	EventAccountDeactivated   EventName = "ACCOUNT_DEACTIVATED"
	EventStudentBadgeAwarded  EventName = "STUDENT_BADGE_AWARDED"
	EventStudentEventReminder EventName = "STUDENT_EVENT_REMINDER"
)

// Club president lifecycle.
const (
	EventClubRegistered      EventName = "CLUB_REGISTERED"
	EventClubVerified        EventName = "CLUB_VERIFIED"
	EventCampaignSubmitted   EventName = "CAMPAIGN_SUBMITTED"
	EventCampaignApproved    EventName = "CAMPAIGN_APPROVED"
	EventCampaignRejected    EventName = "CAMPAIGN_REJECTED"
	EventCampaignGoalReached EventName = "CAMPAIGN_GOAL_REACHED"
	EventCampaignEndingSoon  EventName = "CAMPAIGN_ENDING_SOON"
	EventCampaignEnded       EventName = "CAMPAIGN_ENDED"
	EventPayoutProcessed     EventName = "PAYOUT_PROCESSED"
)

// Donor lifecycle.
const (
	EventDonationFailed       EventName = "DONATION_FAILED"
	EventRefundProcessed      EventName = "REFUND_PROCESSED"
	EventCampaignUpdatePosted EventName = "CAMPAIGN_UPDATE_POSTED"
	EventRecurringDonation    EventName = "RECURRING_DONATION_CHARGED"
	EventDonorTaxReceipt      EventName = "DONOR_TAX_RECEIPT"
)

// Mentor, corporate and alumni outreach.
const (
	EventMentorInvitation        EventName = "MENTOR_INVITATION"
	EventMentorApplicationAccept EventName = "MENTOR_APPLICATION_ACCEPTED"
	EventCorporateInquiry        EventName = "CORPORATE_PARTNERSHIP_INQUIRY"
	EventCorporateSponsorship    EventName = "CORPORATE_SPONSORSHIP_CONFIRMED"
	EventAlumniOutreach          EventName = "ALUMNI_OUTREACH"
	EventAlumniDonationMatch     EventName = "ALUMNI_DONATION_MATCHED"
)

// Mixed events fan out to several roles from one firing.
const (
	EventDonationSuccess      EventName = "DONATION_SUCCESS"
	EventPayoutFailed         EventName = "PAYOUT_FAILED"
	EventMentorSessionBooked  EventName = "MENTOR_SESSION_BOOKED"
	EventCampaignReported     EventName = "CAMPAIGN_REPORTED"
	EventLargeDonationPledged EventName = "LARGE_DONATION_PLEDGED"
)

var knownEvents = map[EventName]struct{}{}

func init() {
	for _, n := range []EventName{
		EventAdminCampaignSubmitted, EventAdminClubVerification, EventAdminRefundFailed,
		EventAdminSecurityAlert, EventAdminDailyDigest, EventAdminSuspiciousDonation,
		EventAdminProviderDegradation,

		EventUserWelcome, EventEmailVerification, EventPasswordReset, EventPasswordChanged,
		EventStudentProfileDone, EventStudentJoinedClub, EventSecurityLoginAlert,
		EventAccountDeactivated, EventStudentBadgeAwarded, EventStudentEventReminder,

		EventClubRegistered, EventClubVerified, EventCampaignSubmitted, EventCampaignApproved,
		EventCampaignRejected, EventCampaignGoalReached, EventCampaignEndingSoon,
		EventCampaignEnded, EventPayoutProcessed,

		EventDonationFailed, EventRefundProcessed, EventCampaignUpdatePosted,
		EventRecurringDonation, EventDonorTaxReceipt,

		EventMentorInvitation, EventMentorApplicationAccept, EventCorporateInquiry,
		EventCorporateSponsorship, EventAlumniOutreach, EventAlumniDonationMatch,

		EventDonationSuccess, EventPayoutFailed, EventMentorSessionBooked,
		EventCampaignReported, EventLargeDonationPledged,
	} {
		knownEvents[n] = struct{}{}
	}
}

// IsKnown reports whether the name belongs to the published vocabulary.
func (n EventName) IsKnown() bool {
	_, ok := knownEvents[n]
	return ok
}

// Role tags the audience a rule addresses.
type Role string

const (
	RoleStudent       Role = "student"
	RoleUser          Role = "user"
	RoleClubPresident Role = "clubPresident"
	RoleDonor         Role = "donor"
	RoleMentor        Role = "mentor"
	RoleCorporate     Role = "corporate"
	RoleAlumni        Role = "alumni"
	RoleAdmin         Role = "admin"
)

// Content is what a template produces for one recipient.
type Content struct {
	Subject string
	Body    string
}
