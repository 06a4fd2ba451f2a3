// Package command turns bot-style text commands into calls on the core
// services and renders their outcome as plain reply strings.
package command

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
)

// Command names accepted by the router.
const (
	NameStart          = "start"
	NameMenu           = "menu"
	NameRegisterClient = "register_client"
	NameRegisterModel  = "register_model"
	NameCancel         = "cancel"
	NameSwitchRole     = "switch_role"
	NameCreateSession  = "create_session"
	NameStartSession   = "start_session"
	NameEndSession     = "end_session"
	NameDisputeSession = "dispute_session"
	NameSession        = "session"
	NameMySessions     = "my_sessions"
	NameAddContent     = "add_content"
	NameListContent    = "list_content"
	NameMyContent      = "my_content"
	NameBuyContent     = "buy_content"
	NameHideContent    = "hide_content"
	NameShowContent    = "show_content"
	NameReleaseEscrow  = "release_escrow"
	NameAdminActions   = "admin_actions"
)

// Command is a parsed slash command.
type Command struct {
	Name string
	// Args are the whitespace separated tokens after the name.
	Args []string
	// Raw is the untouched text after the name, trimmed.
	Raw string
}

// Parse splits "/name arg1 arg2" into a Command. A "@bot" suffix on the name
// is dropped. ok is false when text is not a command.
func Parse(text string) (cmd Command, ok bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return Command{}, false
	}

	head, rest, _ := strings.Cut(text[1:], " ")
	if i := strings.IndexByte(head, '\n'); i >= 0 {
		head, rest = head[:i], head[i+1:]+" "+rest
	}
	head, _, _ = strings.Cut(head, "@")
	if head == "" {
		return Command{}, false
	}

	rest = strings.TrimSpace(rest)
	return Command{
		Name: strings.ToLower(head),
		Args: strings.Fields(rest),
		Raw:  rest,
	}, true
}

// ContentArgs is the parsed payload of /add_content.
type ContentArgs struct {
	Type        string
	Price       decimal.Decimal
	Title       string
	Description string
}

// ParseContentArgs reads "<type> <price> <title...> | <description>". The
// description is optional; the title is every token after the price.
func ParseContentArgs(text string) (ContentArgs, bool) {
	left, description, _ := strings.Cut(text, "|")
	tokens := strings.Fields(left)
	if len(tokens) < 3 {
		return ContentArgs{}, false
	}

	price, err := domain.ParseAmount(tokens[1])
	if err != nil {
		return ContentArgs{}, false
	}

	return ContentArgs{
		Type:        tokens[0],
		Price:       price,
		Title:       strings.Join(tokens[2:], " "),
		Description: strings.TrimSpace(description),
	}, true
}
