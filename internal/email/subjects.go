package email

const (
	subjectWelcome            = "Welcome to your client portal"
	subjectPaymentReminderFmt = "Payment reminder for %s"
)
