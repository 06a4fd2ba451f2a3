package command

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/Davelummy/velvet-rooms-project/internal/core/domain"
	"github.com/Davelummy/velvet-rooms-project/internal/core/ports"
)

// displayLimit caps the rows of any list reply.
const displayLimit = 20

const (
	msgUnknown       = "Unknown command. Use /menu to see what you can do."
	msgSendEmail     = "Please send your email to complete registration."
	msgSendName      = "Great! Send your display name."
	msgRegisterFirst = "Please choose your role to continue: /register_client or /register_model"
	msgTextRequired  = "Please send text for registration."
)

// Identity is the caller as asserted by the transport.
type Identity struct {
	ExternalID int64
	Hints      domain.ProfileHints
}

// UnknownCommand labels replies to commands the router does not know.
const UnknownCommand = "unknown"

// Reply is the outcome of one inbound message.
type Reply struct {
	// Command is empty when the text was not a command.
	Command string
	Text    string
	// Err is the failure rendered into Text, if any.
	Err error
}

type request struct {
	id    Identity
	actor *domain.Actor
	cmd   Command
}

type handlerFunc func(ctx context.Context, req *request) (string, error)

// Router dispatches text commands to the core services.
type Router struct {
	actors        ports.ActorService
	registrations ports.RegistrationService
	sessions      ports.SessionService
	content       ports.ContentService
	audit         ports.AuditService
	log           zerolog.Logger

	handlers map[string]handlerFunc
}

func NewRouter(
	actors ports.ActorService,
	registrations ports.RegistrationService,
	sessions ports.SessionService,
	content ports.ContentService,
	audit ports.AuditService,
	log zerolog.Logger,
) *Router {
	r := &Router{
		actors:        actors,
		registrations: registrations,
		sessions:      sessions,
		content:       content,
		audit:         audit,
		log:           log,
	}
	r.handlers = map[string]handlerFunc{
		NameStart:          r.start,
		NameMenu:           r.menu,
		NameRegisterClient: r.register(domain.RoleClient),
		NameRegisterModel:  r.register(domain.RoleModel),
		NameCancel:         r.cancel,
		NameSwitchRole:     r.switchRole,
		NameCreateSession:  r.createSession,
		NameStartSession:   r.startSession,
		NameEndSession:     r.endSession,
		NameDisputeSession: r.disputeSession,
		NameSession:        r.showSession,
		NameMySessions:     r.mySessions,
		NameAddContent:     r.addContent,
		NameListContent:    r.listContent,
		NameMyContent:      r.myContent,
		NameBuyContent:     r.buyContent,
		NameHideContent:    r.setContentActive(false),
		NameShowContent:    r.setContentActive(true),
		NameReleaseEscrow:  r.releaseEscrow,
		NameAdminActions:   r.adminActions,
	}
	return r
}

// allowedWhilePending are the only commands accepted during onboarding.
var allowedWhilePending = map[string]bool{
	NameRegisterClient: true,
	NameRegisterModel:  true,
	NameCancel:         true,
}

// Handle resolves the caller, applies the registration intercept and runs the
// command. Plain text is treated as registration input.
func (r *Router) Handle(ctx context.Context, id Identity, text string) Reply {
	cmd, isCommand := Parse(text)
	reply := Reply{Command: cmd.Name}

	actor, err := r.actors.GetOrCreateActor(ctx, id.ExternalID, id.Hints)
	if err != nil {
		return r.fail(reply, err)
	}
	pending, err := r.registrations.Pending(ctx, id.ExternalID)
	if err != nil {
		return r.fail(reply, err)
	}

	if !isCommand {
		if pending == nil {
			reply.Text = msgUnknown
			return reply
		}
		return r.submit(ctx, id, text)
	}

	if pending != nil && !allowedWhilePending[cmd.Name] {
		return r.fail(reply, domain.ErrPendingOnboarding)
	}

	h, ok := r.handlers[cmd.Name]
	if !ok {
		reply.Command = UnknownCommand
		reply.Text = msgUnknown
		return reply
	}
	out, err := h(ctx, &request{id: id, actor: actor, cmd: cmd})
	if err != nil {
		return r.fail(reply, err)
	}
	reply.Text = out
	return reply
}

func (r *Router) fail(reply Reply, err error) Reply {
	var derr *domain.Error
	if !errors.As(err, &derr) {
		r.log.Error().Err(err).Str("command", reply.Command).Msg("command failed")
	}
	reply.Err = err
	reply.Text = Describe(err)
	return reply
}

func (r *Router) submit(ctx context.Context, id Identity, text string) Reply {
	var reply Reply
	if strings.TrimSpace(text) == "" {
		reply.Text = msgTextRequired
		return reply
	}

	res, err := r.registrations.Submit(ctx, id.ExternalID, text)
	if err != nil {
		reply = r.fail(reply, err)
		if errors.Is(err, domain.ErrInvalidInput) {
			reply.Text += " Try again."
		}
		return reply
	}

	switch {
	case !res.Pending:
		reply.Text = msgUnknown
	case res.Completed:
		reply.Text = titleRole(res.Role) + " registration complete ✅"
	case res.Step == domain.StepDisplayName:
		reply.Text = msgSendName
	default:
		reply.Text = msgSendEmail
	}
	return reply
}

// ---------------------------------------------------------------------------
// Onboarding
// ---------------------------------------------------------------------------

func (r *Router) start(_ context.Context, req *request) (string, error) {
	if req.actor.Role.Committed() {
		return "Welcome back to Velvet Rooms 👋\nUse /menu to continue.", nil
	}
	return "Welcome to Velvet Rooms 👋\n" +
		"Choose your role to continue (you can switch later): /register_client or /register_model", nil
}

func (r *Router) menu(_ context.Context, req *request) (string, error) {
	var b strings.Builder
	switch req.actor.Role {
	case domain.RoleClient:
		b.WriteString("Client dashboard 🧑‍💼\nYou are all set. Choose what to do next.\n")
		b.WriteString("/list_content /buy_content /create_session /my_sessions /dispute_session /switch_role")
	case domain.RoleModel:
		b.WriteString("Model dashboard ✨\nYou are all set. Choose what to do next.\n")
		b.WriteString("/add_content /my_content /start_session /end_session /my_sessions /switch_role")
	case domain.RoleUnassigned:
		b.WriteString(msgRegisterFirst)
	}
	if r.actors.IsAdmin(req.id.ExternalID) {
		b.WriteString("\nAdmin: /release_escrow /admin_actions")
	}
	return b.String(), nil
}

func (r *Router) register(role domain.Role) handlerFunc {
	return func(ctx context.Context, req *request) (string, error) {
		if _, err := r.registrations.Begin(ctx, req.id.ExternalID, role); err != nil {
			return "", err
		}
		return msgSendEmail, nil
	}
}

func (r *Router) cancel(ctx context.Context, req *request) (string, error) {
	if err := r.registrations.Cancel(ctx, req.id.ExternalID); err != nil {
		return "", err
	}
	return "Registration cancelled.", nil
}

func (r *Router) switchRole(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 1 {
		return "Usage: /switch_role <client|model>", nil
	}
	role, err := domain.ParseRole(strings.ToLower(req.cmd.Args[0]))
	if err != nil {
		return "", err
	}
	actor, err := r.actors.SwitchRole(ctx, req.id.ExternalID, role)
	if err != nil {
		return "", err
	}
	return "You are now using Velvet Rooms as a " + string(actor.Role) + ".", nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

func (r *Router) createSession(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 3 {
		return "Usage: /create_session <model_telegram_id> <type> <price>", nil
	}
	modelID, err := strconv.ParseInt(req.cmd.Args[0], 10, 64)
	if err != nil {
		return "Invalid arguments. Example: /create_session 123456 video 50", nil
	}
	if _, err := domain.ParseAmount(req.cmd.Args[2]); err != nil {
		return "Invalid arguments. Example: /create_session 123456 video 50", nil
	}

	detail, err := r.sessions.CreateSession(ctx, ports.CreateSessionInput{
		ClientID:    req.id.ExternalID,
		ModelID:     modelID,
		SessionType: req.cmd.Args[1],
		Price:       req.cmd.Args[2],
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session created: %s\nStatus: %s\nEscrow: %s",
		detail.Session.Ref, detail.Session.Status, detail.Escrow.Status), nil
}

func (r *Router) startSession(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 1 {
		return "Usage: /start_session <session_ref>", nil
	}
	detail, err := r.sessions.StartSession(ctx, req.cmd.Args[0], req.id.ExternalID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session %s started.", detail.Session.Ref), nil
}

func (r *Router) endSession(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 1 {
		return "Usage: /end_session <session_ref>", nil
	}
	detail, err := r.sessions.EndSession(ctx, req.cmd.Args[0], req.id.ExternalID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session %s completed. Awaiting escrow release.", detail.Session.Ref), nil
}

func (r *Router) disputeSession(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) < 2 {
		return "Usage: /dispute_session <session_ref> <reason>", nil
	}
	ref := req.cmd.Args[0]
	reason := strings.TrimSpace(strings.TrimPrefix(req.cmd.Raw, ref))

	detail, err := r.sessions.DisputeSession(ctx, ref, req.id.ExternalID, reason)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Session %s disputed: %s", detail.Session.Ref, detail.Escrow.DisputeReason), nil
}

func (r *Router) showSession(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 1 {
		return "Usage: /session <session_ref>", nil
	}
	d, err := r.sessions.GetSession(ctx, req.cmd.Args[0], req.id.ExternalID)
	if err != nil {
		return "", err
	}
	out := fmt.Sprintf("Session %s\nType: %s\nPrice: $%s\nStatus: %s\nEscrow: %s",
		d.Session.Ref, d.Session.Type, d.Session.PackagePrice.StringFixed(2), d.Session.Status, d.Escrow.Status)
	if d.Escrow.DisputeReason != "" {
		out += "\nDispute: " + d.Escrow.DisputeReason
	}
	return out, nil
}

func (r *Router) mySessions(ctx context.Context, req *request) (string, error) {
	list, err := r.sessions.ListSessions(ctx, req.id.ExternalID, displayLimit)
	if err != nil {
		return "", err
	}
	if len(list) == 0 {
		return "You have no sessions yet.", nil
	}
	lines := []string{"Your sessions:"}
	for _, d := range list {
		lines = append(lines, fmt.Sprintf("%s %s - $%s (%s, escrow %s)",
			d.Session.Ref, d.Session.Type, d.Session.PackagePrice.StringFixed(2), d.Session.Status, d.Escrow.Status))
	}
	return strings.Join(lines, "\n"), nil
}

// ---------------------------------------------------------------------------
// Content
// ---------------------------------------------------------------------------

func (r *Router) addContent(ctx context.Context, req *request) (string, error) {
	args, ok := ParseContentArgs(req.cmd.Raw)
	if !ok {
		return "Usage: /add_content <type> <price> <title> | <description>", nil
	}
	c, err := r.content.CreateContent(ctx, ports.CreateContentInput{
		ModelID:     req.id.ExternalID,
		Type:        args.Type,
		Price:       args.Price.String(),
		Title:       args.Title,
		Description: args.Description,
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Content created: #%d - %s ($%s)", c.ID, c.Title, c.Price.StringFixed(2)), nil
}

func (r *Router) listContent(ctx context.Context, _ *request) (string, error) {
	items, err := r.content.ListActive(ctx, displayLimit)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "No content available.", nil
	}
	return contentLines("Available content:", items), nil
}

func (r *Router) myContent(ctx context.Context, req *request) (string, error) {
	items, err := r.content.ListByModel(ctx, req.id.ExternalID)
	if err != nil {
		return "", err
	}
	if len(items) == 0 {
		return "You have no content yet.", nil
	}
	if len(items) > displayLimit {
		items = items[:displayLimit]
	}
	return contentLines("Your content:", items), nil
}

func (r *Router) buyContent(ctx context.Context, req *request) (string, error) {
	if len(req.cmd.Args) != 1 {
		return "Usage: /buy_content <content_id>", nil
	}
	id, err := strconv.ParseInt(req.cmd.Args[0], 10, 64)
	if err != nil {
		return "Invalid content id.", nil
	}
	res, err := r.content.Purchase(ctx, ports.PurchaseInput{ContentID: id, ClientID: req.id.ExternalID})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Purchase recorded for content #%d.", res.Content.ID), nil
}

func (r *Router) setContentActive(active bool) handlerFunc {
	return func(ctx context.Context, req *request) (string, error) {
		if len(req.cmd.Args) != 1 {
			return "Usage: /" + req.cmd.Name + " <content_id>", nil
		}
		id, err := strconv.ParseInt(req.cmd.Args[0], 10, 64)
		if err != nil {
			return "Invalid content id.", nil
		}
		c, err := r.content.SetActive(ctx, id, req.id.ExternalID, active)
		if err != nil {
			return "", err
		}
		if c.IsActive {
			return fmt.Sprintf("Content #%d is visible again.", c.ID), nil
		}
		return fmt.Sprintf("Content #%d hidden.", c.ID), nil
	}
}

func contentLines(header string, items []*domain.DigitalContent) string {
	lines := []string{header}
	for _, c := range items {
		line := fmt.Sprintf("#%d %s - $%s", c.ID, c.Title, c.Price.StringFixed(2))
		if !c.IsActive {
			line += " (hidden)"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

// ---------------------------------------------------------------------------
// Admin
// ---------------------------------------------------------------------------

func (r *Router) releaseEscrow(ctx context.Context, req *request) (string, error) {
	if !r.actors.IsAdmin(req.id.ExternalID) {
		return "", domain.ErrNotAdmin
	}
	if len(req.cmd.Args) != 1 {
		return "Usage: /release_escrow <session_ref>", nil
	}
	detail, err := r.sessions.ReleaseEscrow(ctx, req.cmd.Args[0], req.id.ExternalID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Escrow released for %s.", detail.Session.Ref), nil
}

func (r *Router) adminActions(ctx context.Context, req *request) (string, error) {
	limit := displayLimit
	if len(req.cmd.Args) == 1 {
		n, err := strconv.Atoi(req.cmd.Args[0])
		if err != nil || n <= 0 {
			return "Usage: /admin_actions [limit]", nil
		}
		limit = min(n, displayLimit)
	}
	actions, err := r.audit.ListAdminActions(ctx, req.id.ExternalID, limit)
	if err != nil {
		return "", err
	}
	if len(actions) == 0 {
		return "No admin actions recorded.", nil
	}
	lines := []string{"Recent admin actions:"}
	for _, a := range actions {
		line := fmt.Sprintf("#%d %s %s #%d by %d at %s",
			a.ID, a.ActionType, a.TargetType, a.TargetID, a.AdminID, a.CreatedAt.Format("2006-01-02 15:04"))
		if ref := a.Details["session_ref"]; ref != "" {
			line += " (" + ref + ")"
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n"), nil
}

func titleRole(role domain.Role) string {
	s := string(role)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
