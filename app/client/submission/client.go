package submission

import (
	"context"
	"log/slog"
	"time"

	"clubintake/app/config"
	"clubintake/app/service/archive"
	"clubintake/app/service/conversation"
	"clubintake/app/util/mylog"

	"github.com/gofiber/fiber/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
)

var _ conversation.Sink = (*Client)(nil)

// Client posts finished applications to the recruiting backend and
// journals every attempt.
type Client struct {
	url     string
	timeout time.Duration
	archive *archive.Service
	now     func() time.Time
}

func New(di *do.Injector) (*Client, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewClient(cfg.Submission, do.MustInvoke[*archive.Service](di)), nil
}

func NewClient(cfg config.Submission, archiveSvc *archive.Service) *Client {
	return &Client{
		url:     cfg.URL,
		timeout: cfg.Timeout,
		archive: archiveSvc,
		now:     time.Now,
	}
}

func (c *Client) Submit(ctx context.Context, profile *conversation.ProfileData) error {
	err := c.post(ctx, profile)

	record := archive.Record{
		SubmittedAt: c.now().UTC(),
		Profile:     profile,
		Delivered:   err == nil && c.url != "",
	}
	if err != nil {
		record.Error = err.Error()
	}

	if archiveErr := c.archive.Append(record); archiveErr != nil {
		slog.Error("Failed to archive application", "error", archiveErr)
	}

	if err != nil {
		return err
	}

	slog.Info("Application submitted",
		"positions", profile.Positions,
		"delivered", record.Delivered,
		mylog.TelegramKey, true,
	)

	return nil
}

func (c *Client) post(ctx context.Context, profile *conversation.ProfileData) error {
	if c.url == "" {
		slog.Warn("Submission url is not configured, keeping application in archive only")
		return nil
	}

	if err := ctx.Err(); err != nil {
		return oops.In("submission").Wrapf(conversation.ErrSubmitUnreachable, "%v", err)
	}

	timeout := c.timeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = min(timeout, time.Until(deadline))
	}

	code, body, errs := fiber.Post(c.url).
		Timeout(timeout).
		JSON(profile).
		Bytes()
	if len(errs) > 0 {
		return oops.In("submission").
			With("url", c.url).
			With("errors", errs).
			Wrapf(conversation.ErrSubmitUnreachable, "post application: %v", errs[0])
	}

	if code >= fiber.StatusBadRequest {
		return oops.In("submission").
			With("url", c.url).
			With("status", code).
			With("body", string(body)).
			Wrapf(conversation.ErrSubmitStatus, "status %d", code)
	}

	return nil
}
