package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/catalyst/api/worker"
	"github.com/papercomputeco/catalyst/pkg/llm"
	"github.com/papercomputeco/catalyst/pkg/storage"
	"github.com/papercomputeco/catalyst/pkg/stream"
	"github.com/papercomputeco/catalyst/pkg/workshop"
)

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

const (
	msgInvalidBody    = "invalid request body"
	msgEvaluateFailed = "Failed to evaluate topic"
	msgPreMortemFail  = "Failed to generate pre-mortem"
	msgClassifyFailed = "Failed to classify question"
	msgShadowFailed   = "Failed to generate shadow questions"
	msgSummaryFailed  = "Failed to generate summary"
	msgSaveFailed     = "Failed to save workshop"
	msgListFailed     = "Failed to fetch workshops"
	msgGetFailed      = "Failed to fetch workshop"
	msgNotFound       = "Workshop not found"
)

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

func (s *Server) handleEvaluateTopic(c *fiber.Ctx) error {
	var topic workshop.Topic
	if err := c.BodyParser(&topic); err != nil {
		return badRequest(c)
	}

	return s.streamCompletion(c, s.chatRequest(evaluateTopicPrompt, evaluateTopicMessage(topic)), msgEvaluateFailed)
}

func (s *Server) handlePreMortem(c *fiber.Ctx) error {
	var req workshop.PreMortemRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	return s.streamCompletion(c, s.chatRequest(preMortemPrompt, preMortemMessage(req.Topic)), msgPreMortemFail)
}

func (s *Server) handleGenerateSummary(c *fiber.Ctx) error {
	var req workshop.SummaryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	msg, err := summaryMessage(req)
	if err != nil {
		s.logger.Error("building summary prompt", "error", err)
		return internalError(c, msgSummaryFailed)
	}

	return s.streamCompletion(c, s.chatRequest(summaryPrompt, msg), msgSummaryFailed)
}

func (s *Server) handleClassifyQuestion(c *fiber.Ctx) error {
	var req workshop.ClassifyRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	chat := s.chatRequest(classifyQuestionPrompt, classifyQuestionMessage(req))
	chat.JSON = true

	result, err := complete[workshop.Classification](c, s, chat)
	if err != nil {
		s.logger.Error("classifying question", "error", err)
		return internalError(c, msgClassifyFailed)
	}
	return c.JSON(result)
}

func (s *Server) handleShadowQuestions(c *fiber.Ctx) error {
	var req workshop.ShadowRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	msg, err := shadowQuestionsMessage(req)
	if err != nil {
		s.logger.Error("building shadow questions prompt", "error", err)
		return internalError(c, msgShadowFailed)
	}

	chat := s.chatRequest(shadowQuestionsSystem(req.RadarData), msg)
	chat.JSON = true

	result, err := complete[workshop.ShadowQuestions](c, s, chat)
	if err != nil {
		s.logger.Error("generating shadow questions", "error", err)
		return internalError(c, msgShadowFailed)
	}
	return c.JSON(result)
}

func (s *Server) handleSaveWorkshop(c *fiber.Ctx) error {
	var req workshop.SaveRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c)
	}

	rec, err := s.storer.Create(c.UserContext(), req.Record(s.now()))
	if err != nil {
		s.logger.Error("saving workshop", "error", err)
		return internalError(c, msgSaveFailed)
	}

	s.logger.Info("workshop saved",
		"id", rec.ID,
		"topic", rec.TopicTitle,
		"golden_questions", len(rec.GoldenQuestions),
	)

	if s.pool != nil {
		s.pool.Enqueue(worker.Job{Record: rec})
	}

	return c.JSON(rec)
}

func (s *Server) handleListWorkshops(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", storage.MaxList)

	summaries, err := s.storer.List(c.UserContext(), limit)
	if err != nil {
		s.logger.Error("listing workshops", "error", err)
		return internalError(c, msgListFailed)
	}
	if summaries == nil {
		summaries = []workshop.Summary{}
	}

	return c.JSON(summaries)
}

func (s *Server) handleGetWorkshop(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := s.storer.Get(c.UserContext(), id)
	if err != nil {
		if storage.IsNotFound(err) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: msgNotFound})
		}
		s.logger.Error("fetching workshop", "id", id, "error", err)
		return internalError(c, msgGetFailed)
	}

	return c.JSON(rec)
}

// chatRequest builds a completion request with the server's model and token
// bound.
func (s *Server) chatRequest(system, user string) *llm.ChatRequest {
	maxTokens := s.config.MaxTokens
	req := llm.Prompt(user)
	req.System = system
	req.Model = s.config.Model
	req.MaxTokens = &maxTokens
	return req
}

// complete runs a non-streaming completion and decodes the JSON object in its
// answer. An empty answer decodes as "{}".
func complete[T any](c *fiber.Ctx, s *Server, req *llm.ChatRequest) (T, error) {
	var zero T

	resp, err := s.llm.Complete(c.UserContext(), req)
	if err != nil {
		return zero, err
	}

	content := resp.Message.Content
	if content == "" {
		content = "{}"
	}
	return stream.Extract[T](content)
}

func badRequest(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: msgInvalidBody})
}

func internalError(c *fiber.Ctx, msg string) error {
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: msg})
}
