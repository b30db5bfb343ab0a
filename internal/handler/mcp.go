// MCP transport for the admin inbox using the official MCP Go SDK.
// Exposes the stored contact messages as tools so an operator's agent can
// triage the inbox without the admin UI.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront-proxy/internal/model"
)

// === MCP Tool Input/Output Types ===

// ListMessagesInput is the input schema for the list_messages tool.
type ListMessagesInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"maximum number of messages to return, newest first"`
}

// ListMessagesOutput wraps the stored messages for MCP output.
type ListMessagesOutput struct {
	Messages []model.ContactMessage `json:"messages"`
}

// DeleteMessageInput is the input schema for the delete_message tool.
type DeleteMessageInput struct {
	ID string `json:"id" jsonschema:"message id,required"`
}

// DeleteMessageOutput reports the result of a deletion.
type DeleteMessageOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// ReplyMessageInput is the input schema for the reply_message tool.
type ReplyMessageInput struct {
	To      string `json:"to" jsonschema:"recipient email address,required"`
	Subject string `json:"subject" jsonschema:"email subject,required"`
	Message string `json:"message" jsonschema:"email body,required"`
}

// ReplyMessageOutput reports the result of sending a reply.
type ReplyMessageOutput struct {
	Sent bool   `json:"sent"`
	To   string `json:"to"`
}

// NewMCPServer creates an MCP server with the inbox tools registered.
// The server exposes the same operations as the REST admin routes.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront-proxy",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront contact inbox. " +
				"Use these tools to list, delete, and reply to contact-form messages.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_messages",
		Description: "List stored contact-form messages, newest first. Optionally limit the count.",
	}, h.mcpListMessages)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_message",
		Description: "Delete a stored contact-form message by id.",
	}, h.mcpDeleteMessage)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reply_message",
		Description: "Send an email reply to a contact-form sender. Requires SMTP to be configured.",
	}, h.mcpReplyMessage)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListMessages(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ListMessagesInput,
) (*mcp.CallToolResult, *ListMessagesOutput, error) {
	messages, err := h.store.List()
	if err != nil {
		return nil, nil, h.mcpError(err)
	}
	if input.Limit > 0 && input.Limit < len(messages) {
		messages = messages[:input.Limit]
	}
	return nil, &ListMessagesOutput{Messages: messages}, nil
}

func (h *Handler) mcpDeleteMessage(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input DeleteMessageInput,
) (*mcp.CallToolResult, *DeleteMessageOutput, error) {
	if input.ID == "" {
		return nil, nil, fmt.Errorf("id is required")
	}
	if err := h.store.Delete(input.ID); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, nil, fmt.Errorf("message %s not found", input.ID)
		}
		return nil, nil, h.mcpError(err)
	}
	return nil, &DeleteMessageOutput{Deleted: true, ID: input.ID}, nil
}

func (h *Handler) mcpReplyMessage(
	ctx context.Context,
	req *mcp.CallToolRequest,
	input ReplyMessageInput,
) (*mcp.CallToolResult, *ReplyMessageOutput, error) {
	if input.To == "" || input.Subject == "" || input.Message == "" {
		return nil, nil, fmt.Errorf("to, subject and message are required")
	}
	if err := h.mailer.SendReply(ctx, input.To, input.Subject, input.Message); err != nil {
		if errors.Is(err, model.ErrMailDisabled) {
			return nil, nil, fmt.Errorf("SMTP is not configured on this server")
		}
		return nil, nil, h.mcpError(err)
	}
	return nil, &ReplyMessageOutput{Sent: true, To: input.To}, nil
}

// mcpError converts internal errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	// Don't leak internal error details
	h.logger.Error("mcp internal error", "error", err.Error())
	return fmt.Errorf("internal error")
}
