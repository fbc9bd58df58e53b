package flow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strings"

	"github.com/visadesk/visadesk/internal/messaging"
	"github.com/visadesk/visadesk/internal/models"
)

// MainMenu is the top-level menu shown on greeting and after resets.
const MainMenu = `Welcome to Immigration Help 👋
Please choose an option by typing the number:

1️⃣ Canada PR  
2️⃣ Student Visa  
3️⃣ Work Permit  
4️⃣ Tourist Visa  
5️⃣ Business / Startup Visa  
6️⃣ Eligibility Check  
7️⃣ Talk to an Expert (Human Support)

Type *menu* anytime to see this menu again.
Type *restart* to restart the conversation.`

const (
	unrecognizedMessage = "I didn't understand."
	restartedMessage    = "Conversation restarted."
	summaryHeader       = "👍 Personal details collected!"
	continuingMessage   = "Continuing your selected service..."
)

// greetingRegex matches bare greeting tokens that re-trigger the welcome.
var greetingRegex = regexp.MustCompile(`^(?i)(hi|hello|hey)$`)

// menuFlowSelection maps main-menu digits to service flows.
var menuFlowSelection = map[string]models.FlowType{
	"1": models.FlowCanadaPR,
	"2": models.FlowStudentVisa,
	"3": models.FlowWorkPermit,
	"4": models.FlowTouristVisa,
	"5": models.FlowBusinessVisa,
	"6": models.FlowEligibility,
	"7": models.FlowHandoff,
}

// SessionStore is the persistence surface the router needs: whole-snapshot
// load at the start of a turn, whole-snapshot save after every mutation.
type SessionStore interface {
	LoadSessions() (map[string]*models.Session, error)
	SaveSessions(sessions map[string]*models.Session) error
}

// LeadSink records a completed flow and alerts the operator.
type LeadSink interface {
	Record(ctx context.Context, chatID string, flowName string, merged map[string]string) error
}

// Router is the top-level conversation state machine. Every inbound message
// runs one turn: load sessions, route by command / step / flow, persist, reply.
type Router struct {
	store        SessionStore
	msg          messaging.Service
	sink         LeadSink
	welcomeImage string
}

// NewRouter creates a conversation router. welcomeImage may be empty to greet
// with plain text only.
func NewRouter(store SessionStore, msg messaging.Service, sink LeadSink, welcomeImage string) *Router {
	slog.Debug("Creating flow router", "welcome_image_set", welcomeImage != "")
	return &Router{store: store, msg: msg, sink: sink, welcomeImage: welcomeImage}
}

// HandleResponse processes one inbound message to completion: mutate session,
// persist, reply. Send failures are logged but never abort the turn; session
// state has already advanced and persisted by the time a reply goes out.
func (r *Router) HandleResponse(ctx context.Context, resp models.Response) error {
	if resp.IsGroup {
		slog.Debug("Router ignoring group message", "from", resp.From)
		return nil
	}

	chatID, err := r.msg.ValidateAndCanonicalizeRecipient(resp.From)
	if err != nil {
		slog.Error("Router rejecting message with invalid sender", "error", err, "from", resp.From)
		return fmt.Errorf("invalid sender: %w", err)
	}

	sessions, err := r.store.LoadSessions()
	if err != nil {
		// A read failure must not block conversations; start from an empty
		// snapshot and let the save rebuild the document.
		slog.Error("Router failed to load sessions, starting empty", "error", err)
		sessions = make(map[string]*models.Session)
	}

	sess := sessions[chatID]
	if sess == nil {
		sess = models.NewSession()
		sessions[chatID] = sess
		slog.Info("Router created session", "chat_id", chatID)
	}

	text := strings.TrimSpace(resp.Body)
	slog.Debug("Router handling turn", "chat_id", chatID, "flow", sess.Flow, "step", sess.Step, "stage", sess.Service.Stage)

	// First contact: welcome and stop. The triggering text is not interpreted.
	if !sess.Greeted {
		sess.Greeted = true
		r.save(sessions)
		r.sendWelcome(ctx, chatID, resp.SenderName)
		return nil
	}

	// Bare greetings re-send the welcome from any state.
	if greetingRegex.MatchString(text) {
		r.sendWelcome(ctx, chatID, resp.SenderName)
		return nil
	}

	if strings.EqualFold(text, "menu") {
		sess.Flow = ""
		sess.Step = models.StepNone
		sess.ClearPersonal()
		sess.Service = models.ServiceData{}
		r.save(sessions)
		r.send(ctx, chatID, MainMenu)
		return nil
	}

	if strings.EqualFold(text, "restart") {
		fresh := models.NewSession()
		fresh.Greeted = true
		sessions[chatID] = fresh
		r.save(sessions)
		r.send(ctx, chatID, restartedMessage+"\n\n"+MainMenu)
		return nil
	}

	// No flow selected: interpret menu digits.
	if sess.Flow == "" {
		if flow, ok := menuFlowSelection[text]; ok {
			sess.Flow = flow
			sess.Step = models.StepCollectPersonal
			sess.ClearPersonal()
			sess.Service = models.ServiceData{}
			r.save(sessions)
			r.send(ctx, chatID, FirstPersonalPrompt())
			return nil
		}
		r.send(ctx, chatID, unrecognizedMessage+"\n\n"+MainMenu)
		return nil
	}

	// Shared personal-details sub-flow runs before any service flow.
	if sess.Step == models.StepCollectPersonal {
		reply, done := AdvancePersonal(sess, text)
		if !done {
			r.save(sessions)
			r.send(ctx, chatID, reply)
			return nil
		}

		sess.Step = models.StepService
		r.save(sessions)
		r.send(ctx, chatID, summaryHeader+"\n\n"+PersonalSummary(sess.Personal))
		r.send(ctx, chatID, continuingMessage)
		// Fall through with the stage still unset: the selected flow sends
		// its first question and the next inbound message is the first
		// service answer. The text that completed personal collection is
		// never reinterpreted as service input.
	}

	if sess.Step == models.StepService {
		return r.dispatchService(ctx, chatID, sess, sessions, text)
	}

	return nil
}

// sendWelcome greets the user by display name, attaching the welcome image
// when one is configured and present on disk, falling back to plain text.
func (r *Router) sendWelcome(ctx context.Context, chatID, name string) {
	if name == "" {
		name = "User"
	}
	caption := fmt.Sprintf("Hello %s! 👋\n\n%s", name, MainMenu)

	if r.welcomeImage != "" {
		if _, err := os.Stat(r.welcomeImage); err == nil {
			if err := r.msg.SendImage(ctx, chatID, r.welcomeImage, caption); err == nil {
				return
			}
			slog.Error("Greeting image send failed, falling back to text", "chat_id", chatID, "path", r.welcomeImage)
		}
	}
	r.send(ctx, chatID, caption)
}

// send delivers one reply; failures are logged and the turn continues.
func (r *Router) send(ctx context.Context, chatID, body string) {
	if err := r.msg.SendMessage(ctx, chatID, body); err != nil {
		slog.Error("Router send failed", "error", err, "chat_id", chatID)
	}
}

// save persists the full session snapshot; failures are logged and the turn
// continues so one bad write cannot wedge the conversation.
func (r *Router) save(sessions map[string]*models.Session) {
	if err := r.store.SaveSessions(sessions); err != nil {
		slog.Error("Router failed to save sessions", "error", err)
	}
}
