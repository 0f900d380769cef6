// Package rules binds event names to the role-targeted emails they produce.
package rules

import (
	"sort"

	"github.com/notifyhub/campaign-mailer/internal/domain"
	"github.com/notifyhub/campaign-mailer/internal/templates"
)

// Rule derives one email job from an event firing. A zero Priority defers
// to the queue default.
type Rule struct {
	Role     domain.Role
	Template templates.Func
	Priority domain.Priority
}

// Table maps an event name to its ordered rules.
type Table map[domain.EventName][]Rule

// Events returns the event names in the table in lexical order.
func (t Table) Events() []domain.EventName {
	names := make([]domain.EventName, 0, len(t))
	for n := range t {
		names = append(names, n)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

const (
	high   = domain.PriorityHigh
	medium = domain.PriorityMedium
	low    = domain.PriorityLow
)

func rule(role domain.Role, tpl templates.Func, p domain.Priority) Rule {
	return Rule{Role: role, Template: tpl, Priority: p}
}

// DefaultTable returns the platform's rule table. Every call returns a fresh
// map so callers may extend it.
func DefaultTable() Table {
	return Table{
		// admin alerts
		domain.EventAdminCampaignSubmitted:   {rule(domain.RoleAdmin, templates.AdminCampaignSubmitted, medium)},
		domain.EventAdminClubVerification:    {rule(domain.RoleAdmin, templates.AdminClubVerification, medium)},
		domain.EventAdminRefundFailed:        {rule(domain.RoleAdmin, templates.AdminRefundFailed, high)},
		domain.EventAdminSecurityAlert:       {rule(domain.RoleAdmin, templates.AdminSecurityAlert, high)},
		domain.EventAdminDailyDigest:         {rule(domain.RoleAdmin, templates.AdminDailyDigest, low)},
		domain.EventAdminSuspiciousDonation:  {rule(domain.RoleAdmin, templates.AdminSuspiciousDonation, high)},
		domain.EventAdminProviderDegradation: {rule(domain.RoleAdmin, templates.AdminProviderDegraded, high)},

		// student lifecycle
		domain.EventUserWelcome:          {rule(domain.RoleStudent, templates.Welcome, medium)},
		domain.EventEmailVerification:    {rule(domain.RoleUser, templates.EmailVerification, high)},
		domain.EventPasswordReset:        {rule(domain.RoleUser, templates.PasswordReset, high)},
		domain.EventPasswordChanged:      {rule(domain.RoleUser, templates.PasswordChanged, high)},
		domain.EventStudentProfileDone:   {rule(domain.RoleStudent, templates.ProfileCompleted, low)},
		domain.EventStudentJoinedClub:    {rule(domain.RoleStudent, templates.JoinedClub, low)},
		domain.EventSecurityLoginAlert:   {rule(domain.RoleUser, templates.LoginAlert, high)},
		domain.EventAccountDeactivated:   {rule(domain.RoleUser, templates.AccountDeactivated, medium)},
		domain.EventStudentBadgeAwarded:  {rule(domain.RoleStudent, templates.BadgeAwarded, low)},
		domain.EventStudentEventReminder: {rule(domain.RoleStudent, templates.EventReminder, medium)},

		// club president lifecycle
		domain.EventClubRegistered:      {rule(domain.RoleClubPresident, templates.ClubRegistered, medium)},
		domain.EventClubVerified:        {rule(domain.RoleClubPresident, templates.ClubVerified, medium)},
		domain.EventCampaignSubmitted:   {rule(domain.RoleClubPresident, templates.CampaignSubmitted, low)},
		domain.EventCampaignApproved:    {rule(domain.RoleClubPresident, templates.CampaignApproved, medium)},
		domain.EventCampaignRejected:    {rule(domain.RoleClubPresident, templates.CampaignRejected, medium)},
		domain.EventCampaignGoalReached: {rule(domain.RoleClubPresident, templates.GoalReached, medium)},
		domain.EventCampaignEndingSoon:  {rule(domain.RoleClubPresident, templates.EndingSoon, low)},
		domain.EventCampaignEnded:       {rule(domain.RoleClubPresident, templates.CampaignEnded, low)},
		domain.EventPayoutProcessed:     {rule(domain.RoleClubPresident, templates.PayoutProcessed, medium)},

		// donor lifecycle
		domain.EventDonationFailed:       {rule(domain.RoleDonor, templates.DonationFailed, high)},
		domain.EventRefundProcessed:      {rule(domain.RoleDonor, templates.RefundProcessed, medium)},
		domain.EventCampaignUpdatePosted: {rule(domain.RoleDonor, templates.CampaignUpdate, low)},
		domain.EventRecurringDonation:    {rule(domain.RoleDonor, templates.RecurringCharged, low)},
		domain.EventDonorTaxReceipt:      {rule(domain.RoleDonor, templates.TaxReceipt, low)},

		// mentor, corporate and alumni outreach
		domain.EventMentorInvitation:        {rule(domain.RoleMentor, templates.MentorInvitation, medium)},
		domain.EventMentorApplicationAccept: {rule(domain.RoleMentor, templates.MentorAccepted, medium)},
		domain.EventCorporateInquiry: {
			rule(domain.RoleCorporate, templates.CorporateInquiryAck, medium),
			rule(domain.RoleAdmin, templates.AdminCorporateInquiry, medium),
		},
		domain.EventCorporateSponsorship: {rule(domain.RoleCorporate, templates.CorporateSponsorship, medium)},
		domain.EventAlumniOutreach:       {rule(domain.RoleAlumni, templates.AlumniOutreach, low)},
		domain.EventAlumniDonationMatch:  {rule(domain.RoleAlumni, templates.AlumniDonationMatched, low)},

		// mixed
		domain.EventDonationSuccess: {
			rule(domain.RoleDonor, templates.DonorThankYou, high),
			rule(domain.RoleClubPresident, templates.PresidentDonationNotice, medium),
			rule(domain.RoleAdmin, templates.AdminDonationLedger, low),
		},
		domain.EventPayoutFailed: {
			rule(domain.RoleClubPresident, templates.PayoutFailed, high),
			rule(domain.RoleAdmin, templates.AdminPayoutFailed, high),
		},
		domain.EventMentorSessionBooked: {
			rule(domain.RoleMentor, templates.MentorSessionMentor, medium),
			rule(domain.RoleStudent, templates.MentorSessionStudent, medium),
		},
		domain.EventCampaignReported: {
			rule(domain.RoleAdmin, templates.AdminCampaignReported, high),
			rule(domain.RoleClubPresident, templates.PresidentCampaignReported, medium),
		},
		domain.EventLargeDonationPledged: {
			rule(domain.RoleDonor, templates.DonorPledgeConfirmation, medium),
			rule(domain.RoleClubPresident, templates.PresidentLargePledge, medium),
			rule(domain.RoleAdmin, templates.AdminLargePledge, low),
		},
	}
}
