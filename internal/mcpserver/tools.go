package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/lumenworks/sage/internal/persona"
	"github.com/lumenworks/sage/internal/router"
)

var tracer = otel.Tracer("sage-mcp")

// ToolDefs returns the MCP tool definitions.
func ToolDefs() []mcp.Tool {
	return []mcp.Tool{
		{
			Name:        "list_personas",
			Description: "List the available AI personas with their IDs and capability summaries.",
			InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
		},
		{
			Name:        "route_question",
			Description: "Pick the persona best suited to answer a free-form question. Returns the persona ID, or matched=false when none fits.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"question": map[string]any{
						"type":        "string",
						"description": "The question to classify",
					},
				},
				Required: []string{"question"},
			},
		},
		{
			Name:        "ask_persona",
			Description: "Send a message to a persona. Pass conversation_id to continue an exchange; omit it (with persona_id) to start one. If the reply requests a video illustration, a video job is started and its ID returned — poll it with get_video_job.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"message": map[string]any{
						"type":        "string",
						"description": "The user message",
					},
					"persona_id": map[string]any{
						"type":        "string",
						"description": "Persona to start a new conversation with (see list_personas)",
					},
					"conversation_id": map[string]any{
						"type":        "string",
						"description": "Conversation to continue, from a previous ask_persona result",
					},
				},
				Required: []string{"message"},
			},
		},
		{
			Name:        "get_video_job",
			Description: "Get the status of a video generation job. Returns the video URL once complete.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"job_id": map[string]any{
						"type":        "string",
						"description": "The job ID returned from ask_persona",
					},
				},
				Required: []string{"job_id"},
			},
		},
		{
			Name:        "list_video_jobs",
			Description: "List all video generation jobs from this server session, newest first.",
			InputSchema: mcp.ToolInputSchema{Type: "object", Properties: map[string]any{}},
		},
		{
			Name:        "cancel_video_job",
			Description: "Cancel a running video generation job.",
			InputSchema: mcp.ToolInputSchema{
				Type: "object",
				Properties: map[string]any{
					"job_id": map[string]any{
						"type":        "string",
						"description": "The job ID to cancel",
					},
				},
				Required: []string{"job_id"},
			},
		},
	}
}

// Handlers contains the tool implementations.
type Handlers struct {
	convs *ConvStore
	tasks *TaskManager
	jobs  *JobStore
	rtr   *router.Router
	log   *slog.Logger
}

func NewHandlers(convs *ConvStore, tasks *TaskManager, jobs *JobStore, rtr *router.Router, logger *slog.Logger) *Handlers {
	return &Handlers{convs: convs, tasks: tasks, jobs: jobs, rtr: rtr, log: logger}
}

// HandleListPersonas returns the persona catalog.
func (h *Handlers) HandleListPersonas(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.list_personas")
	defer span.End()

	type entry struct {
		ID      string `json:"id"`
		Name    string `json:"name"`
		Summary string `json:"summary"`
	}
	var out []entry
	for _, p := range persona.All() {
		out = append(out, entry{ID: p.ID, Name: p.Name, Summary: p.Summary})
	}
	return jsonResult(out)
}

// HandleRouteQuestion classifies a question against the persona catalog.
func (h *Handlers) HandleRouteQuestion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.route_question")
	defer span.End()

	question := mcp.ParseString(req, "question", "")
	if question == "" {
		span.SetStatus(codes.Error, "missing question")
		return mcp.NewToolResultError("question is required"), nil
	}

	p, ok := h.rtr.FindBest(ctx, question, persona.All())
	if !ok {
		return jsonResult(map[string]any{
			"matched": false,
			"message": "No single persona stands out for that question.",
		})
	}

	span.SetAttributes(attribute.String("persona_id", p.ID))
	return jsonResult(map[string]any{
		"matched":      true,
		"persona_id":   p.ID,
		"persona_name": p.Name,
	})
}

// HandleAskPersona sends one message within a conversation, starting a
// video job when the reply embeds a directive.
func (h *Handlers) HandleAskPersona(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ctx, span := tracer.Start(ctx, "tool.ask_persona")
	defer span.End()

	message := mcp.ParseString(req, "message", "")
	if message == "" {
		span.SetStatus(codes.Error, "missing message")
		return mcp.NewToolResultError("message is required"), nil
	}

	conv, errResult := h.resolveConversation(req)
	if errResult != nil {
		span.SetStatus(codes.Error, "no conversation")
		return errResult, nil
	}
	span.SetAttributes(
		attribute.String("conversation_id", conv.ID),
		attribute.String("persona_id", conv.Persona.ID),
	)

	reply, err := conv.Send(ctx, message)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "send failed")
		return mcp.NewToolResultError(fmt.Sprintf("send failed: %v", err)), nil
	}

	result := map[string]any{
		"conversation_id": conv.ID,
		"persona_id":      conv.Persona.ID,
		"persona_name":    conv.Persona.Name,
		"reply":           reply.CleanText,
	}

	if reply.Directive != "" {
		jobID, err := h.tasks.StartJob(ctx, conv.Persona.ID, reply.Directive)
		if err != nil {
			// The reply itself is fine; report the job problem alongside it.
			h.log.WarnContext(ctx, "Could not start video job", "error", err)
			result["video_error"] = err.Error()
		} else {
			span.SetAttributes(attribute.String("video_job_id", jobID))
			result["video_job_id"] = jobID
			result["video_status"] = string(JobStatusSubmitted)
		}
	}

	return jsonResult(result)
}

func (h *Handlers) resolveConversation(req mcp.CallToolRequest) (*Conversation, *mcp.CallToolResult) {
	if convID := mcp.ParseString(req, "conversation_id", ""); convID != "" {
		conv, ok := h.convs.Get(convID)
		if !ok {
			return nil, mcp.NewToolResultError(fmt.Sprintf("unknown conversation_id %q", convID))
		}
		return conv, nil
	}

	personaID := mcp.ParseString(req, "persona_id", "")
	if personaID == "" {
		return nil, mcp.NewToolResultError("either conversation_id or persona_id is required")
	}
	p, ok := persona.ByID(personaID)
	if !ok {
		return nil, mcp.NewToolResultError(fmt.Sprintf("unknown persona_id %q (use list_personas)", personaID))
	}
	conv, err := h.convs.Open(p)
	if err != nil {
		return nil, mcp.NewToolResultError(err.Error())
	}
	return conv, nil
}

// HandleGetVideoJob returns job status and, when complete, the video URL.
func (h *Handlers) HandleGetVideoJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.get_video_job")
	defer span.End()

	id := mcp.ParseString(req, "job_id", "")
	if id == "" {
		span.SetStatus(codes.Error, "missing job_id")
		return mcp.NewToolResultError("job_id is required"), nil
	}
	span.SetAttributes(attribute.String("job_id", id))

	record, ok := h.jobs.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown job_id %q", id)), nil
	}
	return jsonResult(record)
}

// HandleListVideoJobs returns every job record, newest first.
func (h *Handlers) HandleListVideoJobs(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.list_video_jobs")
	defer span.End()

	return jsonResult(map[string]any{"jobs": h.jobs.List()})
}

// HandleCancelVideoJob stops a running job's polling.
func (h *Handlers) HandleCancelVideoJob(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	_, span := tracer.Start(ctx, "tool.cancel_video_job")
	defer span.End()

	id := mcp.ParseString(req, "job_id", "")
	if id == "" {
		span.SetStatus(codes.Error, "missing job_id")
		return mcp.NewToolResultError("job_id is required"), nil
	}
	span.SetAttributes(attribute.String("job_id", id))

	record, ok := h.jobs.Get(id)
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("unknown job_id %q", id)), nil
	}
	if record.Status == JobStatusComplete || record.Status == JobStatusFailed {
		return mcp.NewToolResultError(fmt.Sprintf("job %s already %s", id, record.Status)), nil
	}

	h.tasks.CancelJob(id)
	h.jobs.Fail(id, "cancelled by client")
	record, _ = h.jobs.Get(id)
	return jsonResult(record)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}
