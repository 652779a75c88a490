package sendgridnotif

import (
	"net/http"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/shulehq/darasa/core"
	"github.com/shulehq/darasa/core/user"
)

var (
	host     = "https://api.sendgrid.com"
	endpoint = "/v3/mail/send"
)

// Directory resolves a recipient id to a deliverable address.
type Directory interface {
	GetByID(id string) (user.User, error)
}

// service delivers notifications as transactional emails. Recipients
// without a known email address are skipped.
type service struct {
	key        string
	from       *sgmail.Email
	subjPrefix string
	users      Directory
	log        core.Logger
}

var _ core.NotificationService = (*service)(nil)

func NewService(conf *core.Config, users Directory, log core.Logger) core.NotificationService {
	return &service{
		key:        conf.SendgridAPIKey,
		from:       sgmail.NewEmail(conf.AppName, conf.DefaultFromEmail),
		subjPrefix: "[" + conf.AppName + "] ",
		users:      users,
		log:        log,
	}
}

func (svc *service) Send(notifs ...*core.Notification) {
	for _, notif := range notifs {
		notif := notif
		go svc.send(notif)
	}
}

func (svc *service) send(notif *core.Notification) {
	if notif.RecipientID == "" || notif.Message == "" {
		return
	}
	usr, err := svc.users.GetByID(notif.RecipientID)
	if err != nil || usr.Email == "" {
		svc.log.Warn("notification recipient has no address", map[string]interface{}{"recipient": notif.RecipientID})
		return
	}

	m := svc.prepare(notif, usr)
	request := sendgrid.GetRequest(svc.key, endpoint, host)
	request.Method = http.MethodPost
	request.Body = sgmail.GetRequestBody(m)

	resp, err := sendgrid.API(request)
	if err != nil {
		svc.log.Error("sending notification email", err)
		return
	}
	if resp.StatusCode >= http.StatusBadRequest {
		svc.log.Error("sending notification email", map[string]interface{}{"status": resp.StatusCode, "body": resp.Body})
	}
}

func (svc *service) prepare(notif *core.Notification, usr user.User) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.Subject = svc.subjPrefix + notif.Title
	p.AddTos(sgmail.NewEmail(usr.Name, usr.Email))

	m := sgmail.NewV3Mail()
	m.SetFrom(svc.from)
	m.AddPersonalizations(p)
	m.AddContent(sgmail.NewContent("text/plain", notif.Message))
	return m
}
