// Package notify emails per-church badge archives to the distinct
// (district, church, email) contacts of the roster.
package notify

import (
	"context"
	"fmt"
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"checkin/internal/mailer"
	"checkin/internal/registrant"
	"checkin/internal/slugify"
)

// Defaults applied when the operator does not override subject or body.
const (
	DefaultSubject = "Event material"
	DefaultBody    = "Hello, attached are the entrance codes for your church."
	DefaultSleep   = 2 * time.Second
)

// Options configure a dispatch run. Everything is explicit; nothing reads
// ambient state.
type Options struct {
	BaseDir string
	Subject string
	Body    string
	From    string // optional sender override
	DryRun  bool
	Sleep   time.Duration // pause between successful sends
}

// Report tallies a dispatch run. Every contact lands in exactly one counter.
type Report struct {
	RunID                 string
	Sent                  int
	SkippedMissingArchive int
	SkippedInvalidEmail   int
	SendFailures          int
}

// ContactSource supplies the distinct contact triples.
type ContactSource interface {
	Contacts(ctx context.Context) ([]registrant.Contact, error)
}

// Dispatcher walks the contact list and sends each church its archive.
type Dispatcher struct {
	src    ContactSource
	sender mailer.Sender
	sleep  func(time.Duration)
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(src ContactSource, sender mailer.Sender) *Dispatcher {
	return &Dispatcher{src: src, sender: sender, sleep: time.Sleep}
}

// Run validates each contact, locates the matching church archive, and sends
// it. Skips and per-recipient failures are counted and never abort the run.
// Dry-run performs every lookup but neither sends nor sleeps.
func (d *Dispatcher) Run(ctx context.Context, opts Options) (Report, error) {
	report := Report{RunID: uuid.NewString()}
	if opts.Subject == "" {
		opts.Subject = DefaultSubject
	}
	if opts.Body == "" {
		opts.Body = DefaultBody
	}

	contacts, err := d.src.Contacts(ctx)
	if err != nil {
		return report, fmt.Errorf("load contacts: %w", err)
	}
	if len(contacts) == 0 {
		log.Printf("notify run %s: no contacts with email", report.RunID)
		return report, nil
	}
	log.Printf("notify run %s: %d distinct contacts", report.RunID, len(contacts))

	prefix := ""
	if opts.DryRun {
		prefix = "[DRY] "
	}

	for _, c := range contacts {
		email := strings.TrimSpace(c.Email)
		if _, err := mail.ParseAddress(email); err != nil {
			log.Printf("notify run %s: invalid email %q (%s / %s)", report.RunID, email, c.District, c.Church)
			report.SkippedInvalidEmail++
			continue
		}

		archive := ArchivePath(opts.BaseDir, c)
		if _, err := os.Stat(archive); err != nil {
			log.Printf("notify run %s: archive missing %s (%s / %s)", report.RunID, archive, c.District, c.Church)
			report.SkippedMissingArchive++
			continue
		}

		log.Printf("notify run %s: %ssending to %s -> %s", report.RunID, prefix, email, archive)
		if opts.DryRun {
			continue
		}

		err = d.sender.Send(mailer.Message{
			To:         email,
			From:       opts.From,
			Subject:    opts.Subject,
			Body:       opts.Body,
			District:   c.District,
			Church:     c.Church,
			Attachment: archive,
		})
		if err != nil {
			log.Printf("notify run %s: send to %s failed: %v", report.RunID, email, err)
			report.SendFailures++
			continue
		}
		report.Sent++
		if opts.Sleep > 0 {
			d.sleep(opts.Sleep)
		}
	}

	log.Printf("notify run %s: sent %d, missing archive %d, invalid email %d, failed %d",
		report.RunID, report.Sent, report.SkippedMissingArchive, report.SkippedInvalidEmail, report.SendFailures)
	return report, nil
}

// ArchivePath resolves a contact's church archive with the same slugging the
// badge generator and packager use.
func ArchivePath(baseDir string, c registrant.Contact) string {
	return filepath.Join(baseDir, slugify.District(c.District), slugify.Church(c.Church)+".zip")
}
