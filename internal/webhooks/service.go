package webhooks

import (
	"strings"

	"wholesale/internal/events"
	"wholesale/internal/images"
	"wholesale/internal/logger"
	"wholesale/internal/services/zoho"

	"gorm.io/gorm"
)

// Result is what every handler returns. Handlers never return an error:
// failures are caught and reported here so the HTTP layer can always answer
// the sender with a body describing what happened.
type Result struct {
	Success bool   `json:"success"`
	Action  string `json:"action"`
	Message string `json:"message"`
}

// Service holds the webhook handlers for item, customer, invoice and bill
// change notifications. Construct one per process; the idempotency cache and
// image queue it carries are process-local.
type Service struct {
	db          *gorm.DB
	queue       *images.Queue
	publisher   *events.Publisher
	transformer *zoho.Transformer
	idem        *idemCache
	secret      string
	logger      *logger.Logger
}

func NewService(db *gorm.DB, queue *images.Queue, publisher *events.Publisher, secret string, logger *logger.Logger) *Service {
	if secret == "" {
		logger.Warn("no webhook secret configured, accepting all webhook requests")
	}
	return &Service{
		db:          db,
		queue:       queue,
		publisher:   publisher,
		transformer: zoho.NewTransformer(),
		idem:        newIdemCache(),
		secret:      secret,
		logger:      logger,
	}
}

// VerifySecret checks the shared secret. Some senders append a stray "&" to
// the configured value, so a single trailing ampersand is tolerated. With no
// secret configured every request is accepted; that early-setup fallback is
// logged at construction time.
func (s *Service) VerifySecret(provided string) bool {
	if s.secret == "" {
		return true
	}
	provided = strings.TrimSuffix(provided, "&")
	return provided == s.secret
}

func failure(action, message string) Result {
	return Result{Success: false, Action: action, Message: message}
}

func success(action, message string) Result {
	return Result{Success: true, Action: action, Message: message}
}
