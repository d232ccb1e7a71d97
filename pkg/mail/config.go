package mail

// Config holds outbound mail configuration. The Postmark tokens are optional
// so development environments can run on the DevSender without provider
// credentials; SenderEmail establishes the from identity of every message.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`
	DevOutputDir         string `env:"MAIL_DEV_OUTPUT_DIR" envDefault:"./tmp/mail"`
}
