package api

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"clubintake/app/config"
	"clubintake/app/service/conversation"
	"clubintake/app/service/knowledge"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/samber/do"
	"github.com/samber/oops"
)

const shutdownTimeout = 10 * time.Second

// Conversation is the part of the conversation service the HTTP shell drives.
type Conversation interface {
	Begin(ctx context.Context) (*conversation.Reply, error)
	Advance(ctx context.Context, sessionID, text string) (*conversation.Reply, error)
}

type Service struct {
	listen   string
	app      *fiber.App
	conv     Conversation
	validate *validator.Validate
	banner   string
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)
	kb := do.MustInvoke[*knowledge.Base](di)

	return NewService(cfg.Server, do.MustInvoke[*conversation.Service](di), kb.Name), nil
}

func NewService(cfg config.Server, conv Conversation, clubName string) *Service {
	s := &Service{
		listen:   cfg.Listen,
		conv:     conv,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		banner:   clubName + " 챗봇 API입니다.",
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "clubintake",
		DisableStartupMessage: true,
		ErrorHandler:          s.handleError,
	})
	s.app.Use(recover.New())
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.CORSOrigins,
	}))

	s.app.Get("/", s.handleRoot)
	s.app.Post("/chat/start", s.handleStart)
	s.app.Post("/chat/send", s.handleSend)

	return s
}

func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		slog.Info("HTTP server listening", "addr", s.listen)
		errCh <- s.app.Listen(s.listen)
	}()

	select {
	case err := <-errCh:
		return oops.In("api").Wrapf(err, "listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return oops.In("api").Wrapf(err, "shutdown")
	}

	return nil
}

func (s *Service) handleRoot(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"message": s.banner})
}

func (s *Service) handleStart(c *fiber.Ctx) error {
	reply, err := s.conv.Begin(c.UserContext())
	if err != nil {
		return oops.In("api").Wrapf(err, "대화 시작 중 오류 발생")
	}

	return c.JSON(startResponse{
		SessionID:       reply.SessionID,
		ResponseMessage: reply.Message,
		NextStep:        reply.NextStage.String(),
	})
}

func (s *Service) handleSend(c *fiber.Ctx) error {
	var req sendRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body: "+err.Error())
	}

	if err := s.validate.Struct(req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	reply, err := s.conv.Advance(c.UserContext(), req.SessionID, *req.Message)
	if err != nil {
		return oops.In("api").With("session_id", req.SessionID).Wrapf(err, "메시지 처리 중 오류 발생")
	}

	if reply.NextStage == conversation.StageDone {
		slog.Info("Conversation finished", "session_id", reply.SessionID)
	}

	return c.JSON(sendResponse{
		SessionID:       reply.SessionID,
		ResponseMessage: reply.Message,
		NextStep:        reply.NextStage.String(),
		ProfileData:     reply.Profile,
	})
}

func (s *Service) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	var fiberErr *fiber.Error
	switch {
	case errors.As(err, &fiberErr):
		code = fiberErr.Code
	case errors.Is(err, conversation.ErrSessionNotFound):
		code = fiber.StatusNotFound
	}

	if code >= fiber.StatusInternalServerError {
		slog.Error("Request failed", "path", c.Path(), "error", err)
	} else {
		slog.Debug("Request rejected", "path", c.Path(), "status", code, "error", err)
	}

	return c.Status(code).JSON(errorResponse{Detail: err.Error()})
}

// Shutdown releases the listener if Run did not get the chance to.
func (s *Service) Shutdown() error {
	return s.app.Shutdown()
}
