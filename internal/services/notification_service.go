package services

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"pam-backend/internal/access"
	"pam-backend/internal/logger"
	"pam-backend/internal/mailer"
	"pam-backend/internal/models"
)

type approverStore interface {
	ApproversAtSite(ctx context.Context, siteID int, roleIDs ...int) ([]*models.User, error)
}

type countryStore interface {
	CountryByID(ctx context.Context, id int) (*models.Country, error)
}

// NotificationService assembles and delivers transfer notifications. Every
// send is best effort: failures are logged, never propagated to the ledger
// write that triggered them.
type NotificationService struct {
	users     approverStore
	sites     siteStore
	countries countryStore
	mail      mailer.Provider
}

func NewNotificationService(users approverStore, sites siteStore, countries countryStore, mail mailer.Provider) *NotificationService {
	return &NotificationService{users: users, sites: sites, countries: countries, mail: mail}
}

// NotifyTransfer emails the destination site's approvers about an incoming
// transfer. PMs get it; when the site has none, site users do. The origin
// country's operations mailbox is CC'd.
func (s *NotificationService) NotifyTransfer(notice *TransferNotice) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	to, err := s.recipients(ctx, notice.ToSiteID)
	if err != nil {
		logger.Error("notification", "NotifyTransfer", err)
		return
	}
	if len(to) == 0 {
		logger.Errorw("notification", "NotifyTransfer",
			fmt.Errorf("no approvers to notify at destination site"), notice.ToSiteID)
		return
	}

	from, err := s.sites.SiteByID(ctx, notice.FromSiteID)
	if err != nil {
		logger.Error("notification", "NotifyTransfer", err)
		return
	}
	dest, err := s.sites.SiteByID(ctx, notice.ToSiteID)
	if err != nil {
		logger.Error("notification", "NotifyTransfer", err)
		return
	}
	fromName, destName := "", ""
	var cc []string
	if from != nil {
		fromName = from.Name
		if country, err := s.countries.CountryByID(ctx, from.CountryID); err == nil &&
			country != nil && country.OpsEmail != "" {
			cc = append(cc, country.OpsEmail)
		}
	}
	if dest != nil {
		destName = dest.Name
	}

	subject := fmt.Sprintf("Material Transfer %s from %s to %s", notice.RefNo, fromName, destName)
	body := transferBody(notice, fromName, destName)
	if err := s.mail.Send(to, cc, subject, body); err != nil {
		logger.Errorw("notification", "NotifyTransfer", err, notice.RefNo)
	}
}

// recipients returns the emails of the destination's PM approvers, falling
// back to site users when the site has no PM.
func (s *NotificationService) recipients(ctx context.Context, siteID int) ([]string, error) {
	approvers, err := s.users.ApproversAtSite(ctx, siteID,
		int(access.RoleProjectManager), int(access.RoleSeniorPM))
	if err != nil {
		return nil, err
	}
	if len(approvers) == 0 {
		approvers, err = s.users.ApproversAtSite(ctx, siteID, int(access.RoleSiteUser))
		if err != nil {
			return nil, err
		}
	}
	var emails []string
	for _, u := range approvers {
		if u.Email != "" {
			emails = append(emails, u.Email)
		}
	}
	return emails, nil
}

func transferBody(n *TransferNotice, fromName, destName string) string {
	esc := html.EscapeString
	var b strings.Builder
	b.WriteString("<html><body>")
	fmt.Fprintf(&b, "<p>A material transfer to <b>%s</b> is on its way.</p>", esc(destName))
	b.WriteString(`<table border="1" cellpadding="6" cellspacing="0">`)
	row := func(k, v string) {
		fmt.Fprintf(&b, "<tr><td><b>%s</b></td><td>%s</td></tr>", k, esc(v))
	}
	row("Reference", n.RefNo)
	row("From Site", fromName)
	row("To Site", destName)
	row("Item", n.ItemName)
	row("Quantity", fmt.Sprintf("%g %s", n.Quantity, n.Unit))
	row("Issued By", n.ActorName)
	row("Date", n.Date)
	if n.Remarks != "" {
		row("Remarks", n.Remarks)
	}
	b.WriteString("</table>")
	b.WriteString("<p>Please receive the material on arrival.</p>")
	b.WriteString("</body></html>")
	return b.String()
}
