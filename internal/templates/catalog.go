package templates

// Admin alerts.
var (
	AdminCampaignSubmitted = Simple("New campaign awaiting review: {campaignTitle}",
		"Club {clubName} submitted the campaign {campaignTitle} for review.")
	AdminClubVerification = Simple("Club verification requested: {clubName}",
		"{clubName} requested verification. Contact: {presidentEmail}.")
	AdminRefundFailed = Simple("Refund failed for donation {donationId}",
		"A refund of {amount} for donation {donationId} failed.\nReason: {reason}")
	AdminSecurityAlert = Simple("Security alert: {alertType}",
		"{alertType} detected for account {userEmail} from {ipAddress}.")
	AdminDailyDigest = Simple("Daily digest for {date}",
		"Donations: {donationCount}, total raised: {totalRaised}.\nNew campaigns: {campaignCount}.")
	AdminSuspiciousDonation = Simple("Suspicious donation flagged: {donationId}",
		"Donation {donationId} of {amount} was flagged: {reason}.")
	AdminProviderDegraded = Simple("Email provider degraded: {provider}",
		"Provider {provider} is failing: {reason}.")
	AdminDonationLedger = Simple("Ledger: donation of {amount} to {campaignTitle}",
		"Donation {donationId} of {amount} was recorded for {campaignTitle}.")
	AdminPayoutFailed = Require(Simple("Payout failed for {clubName}",
		"The payout of {amount} to {clubName} failed.\nReason: {reason}"), "amount")
	AdminCampaignReported = Simple("Campaign reported: {campaignTitle}",
		"{campaignTitle} was reported by a user.\nReason: {reason}")
	AdminCorporateInquiry = Simple("Partnership inquiry from {companyName}",
		"{companyName} sent a partnership inquiry.\n{message}")
	AdminLargePledge = Simple("Large pledge: {amount} to {campaignTitle}",
		"A pledge of {amount} was made to {campaignTitle}.")
)

// Student lifecycle.
var (
	Welcome = Simple("Welcome to the platform, {name}!",
		"Hi {name}, thanks for joining.\nStart by exploring campaigns from clubs on your campus.")
	EmailVerification = Require(Simple("Verify your email address",
		"Confirm your address by visiting {verificationUrl}."), "verificationUrl")
	PasswordReset = Require(Simple("Reset your password",
		"Use this link to reset your password: {resetUrl}\nIt expires in {expiresIn}."), "resetUrl")
	PasswordChanged = Simple("Your password was changed",
		"Your password was changed. If this was not you, contact support immediately.")
	ProfileCompleted = Simple("Your profile is complete",
		"Hi {name}, your profile is complete and visible to club presidents.")
	JoinedClub = Simple("You joined {clubName}",
		"Welcome to {clubName}! You will now receive updates on its campaigns.")
	LoginAlert = Simple("New sign-in to your account",
		"We noticed a sign-in from {ipAddress} ({device}) at {time}.")
	AccountDeactivated = Simple("Your account was deactivated",
		"Your account has been deactivated. Reason: {reason}")
	BadgeAwarded = Simple("You earned the {badgeName} badge",
		"Congratulations {name}, you earned {badgeName}.")
	EventReminder = Simple("Reminder: {eventTitle} starts soon",
		"{eventTitle} starts at {startsAt}.")
)

// Club president lifecycle.
var (
	ClubRegistered = Simple("Club {clubName} registered",
		"Your club {clubName} was registered. Verification usually takes two business days.")
	ClubVerified = Simple("{clubName} is verified",
		"Your club {clubName} is verified and can now launch campaigns.")
	CampaignSubmitted = Simple("Campaign submitted: {campaignTitle}",
		"{campaignTitle} was submitted and is awaiting review.")
	CampaignApproved = Simple("Campaign approved: {campaignTitle}",
		"Great news! {campaignTitle} is live.")
	CampaignRejected = Simple("Campaign needs changes: {campaignTitle}",
		"{campaignTitle} was not approved.\nReviewer notes: {reason}")
	GoalReached = Simple("{campaignTitle} reached its goal",
		"{campaignTitle} raised {amountRaised} of its {goal} goal.")
	EndingSoon = Simple("{campaignTitle} ends in {daysLeft} days",
		"{campaignTitle} has raised {amountRaised} so far.")
	CampaignEnded = Simple("{campaignTitle} has ended",
		"{campaignTitle} ended with {amountRaised} raised.")
	PayoutProcessed = Simple("Payout of {amount} processed",
		"A payout of {amount} was sent to {clubName}.")
	PayoutFailed = Simple("Payout for {clubName} failed",
		"We could not send your payout of {amount}. Our team is looking into it.")
	PresidentDonationNotice = Simple("New donation to {campaignTitle}",
		"{donorName} donated {amount} to {campaignTitle}.")
	PresidentCampaignReported = Simple("{campaignTitle} was reported",
		"A user reported {campaignTitle}. An admin will review the report.")
	PresidentLargePledge = Simple("Large pledge to {campaignTitle}",
		"{campaignTitle} received a pledge of {amount}.")
)

// Donor lifecycle.
var (
	DonorThankYou = Simple("Thank you for your donation to {campaignTitle}",
		"Thank you {donorName}! Your donation of {amount} to {campaignTitle} was received.")
	DonationFailed = Simple("Your donation could not be processed",
		"Your donation of {amount} to {campaignTitle} failed: {reason}.")
	RefundProcessed = Simple("Refund of {amount} processed",
		"Your refund of {amount} for {campaignTitle} was processed.")
	CampaignUpdate = Simple("Update from {campaignTitle}",
		"{updateTitle}\n{updateBody}")
	RecurringCharged = Simple("Your monthly donation of {amount}",
		"Your recurring donation of {amount} to {campaignTitle} was charged.")
	TaxReceipt = Require(Simple("Your tax receipt for {year}",
		"Your receipt for {year} is available at {receiptUrl}."), "receiptUrl")
	DonorPledgeConfirmation = Simple("Pledge confirmed: {amount}",
		"Thank you for pledging {amount} to {campaignTitle}.")
)

// Mentor, corporate and alumni outreach.
var (
	MentorInvitation = Simple("You are invited to mentor on the platform",
		"{inviterName} invited you to mentor students.\nAccept at {inviteUrl}.")
	MentorAccepted = Simple("Your mentor application was accepted",
		"Welcome aboard, {name}.")
	MentorSessionMentor = Simple("Session booked with {studentName}",
		"{studentName} booked a session on {sessionAt}.")
	MentorSessionStudent = Simple("Your session with {mentorName} is booked",
		"Your session with {mentorName} is on {sessionAt}.")
	CorporateInquiryAck = Simple("Thanks for reaching out, {companyName}",
		"We received your partnership inquiry and will reply shortly.")
	CorporateSponsorship = Simple("Sponsorship confirmed: {campaignTitle}",
		"{companyName} now sponsors {campaignTitle} with {amount}.")
	AlumniOutreach = Require(Simple("{subjectLine}", "{message}"), "subjectLine", "message")
	AlumniDonationMatched = Simple("Your donation was matched",
		"{matcherName} matched your donation of {amount} to {campaignTitle}.")
)
