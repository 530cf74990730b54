package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/atinyakov/DocDesk/internal/client/api"
	"github.com/atinyakov/DocDesk/internal/client/editor"
	"github.com/atinyakov/DocDesk/internal/client/fetch"
	"github.com/atinyakov/DocDesk/internal/client/session"
	"github.com/atinyakov/DocDesk/internal/client/submit"
	"github.com/atinyakov/DocDesk/internal/models"
)

const (
	apiFAQs    = "/api/faqs"
	apiDoctors = "/api/doctors/"
)

const helpText = `Available commands:
  login <email> <password>        start a session
  logout                          end the session
  whoami                          show the session state
  get <path>                      fetch any API path and print its data
  faq                             list frequently asked questions
  profile [id]                    load a doctor profile for editing (default: yours)
  show                            print the profile being edited
  set <field> <value>             set a scalar field (name, phone, bio, ticketPrice, ...)
  add <list> [field=value ...]    append an entry to qualifications, experiences or timeSlots
  edit <list> <index> <field> <value>
  delete <list> <index>
  photo <file>                    upload an image and use it as the profile photo
  diff                            show the fields that would be submitted
  submit                          send the changes
  reset                           discard all edits
  exit`

// shell is the interactive front end over the client state layer.
type shell struct {
	out       io.Writer
	client    *api.Client
	uploader  api.Uploader
	submitter *submit.Submitter
	raw       *fetch.Fetcher[json.RawMessage]
	faqs      *fetch.Fetcher[[]models.FAQ]
	profile   *fetch.Fetcher[models.DoctorProfile]
	log       *zap.Logger

	session *session.Machine
	editor  *editor.Editor
}

func newShell(out io.Writer, client *api.Client, uploader api.Uploader, log *zap.Logger) *shell {
	return &shell{
		out:       out,
		client:    client,
		uploader:  uploader,
		submitter: submit.New(client, log),
		raw:       fetch.New[json.RawMessage](client, nil, log),
		faqs:      fetch.New(client, []models.FAQ{}, log),
		profile:   fetch.New(client, models.DoctorProfile{}, log),
		log:       log,
	}
}

// run reads commands from in until EOF or "exit". The session machine is
// taken from ctx.
func (s *shell) run(ctx context.Context, in io.Reader) error {
	m, ok := session.FromContext(ctx)
	if !ok {
		return errors.New("no session in context")
	}
	s.session = m
	unsubscribe := m.Subscribe(func(st session.State, p session.Phase) {
		s.log.Debug("session changed", zap.Stringer("phase", p), zap.String("role", string(st.Role)))
	})
	defer unsubscribe()

	if st := m.State(); st.IsAuthenticated() {
		fmt.Fprintf(s.out, "Welcome back, %s (%s)\n", st.User.Name, st.Role)
	}

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(s.out, "docdesk> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		if args[0] == "exit" {
			fmt.Fprintln(s.out, "Bye")
			return nil
		}
		if err := s.exec(ctx, args); err != nil {
			fmt.Fprintln(s.out, "Error:", err)
		}
	}
	return scanner.Err()
}

func (s *shell) exec(ctx context.Context, args []string) error {
	switch args[0] {
	case "help":
		fmt.Fprintln(s.out, helpText)
		return nil
	case "login":
		if len(args) != 3 {
			return errors.New("usage: login <email> <password>")
		}
		return s.login(ctx, args[1], args[2])
	case "logout":
		return s.logout(ctx)
	case "whoami":
		s.whoami()
		return nil
	case "get":
		if len(args) != 2 {
			return errors.New("usage: get <path>")
		}
		return s.get(ctx, args[1])
	case "faq":
		return s.listFAQs(ctx)
	case "profile":
		id := ""
		if len(args) > 1 {
			id = args[1]
		}
		return s.loadProfile(ctx, id)
	}

	// everything below edits a loaded profile
	if s.editor == nil {
		return fmt.Errorf("unknown command %q or no profile loaded; type 'help'", args[0])
	}
	switch args[0] {
	case "show":
		return s.printRecord(s.editor.Record())
	case "set":
		if len(args) < 3 {
			return errors.New("usage: set <field> <value>")
		}
		_, err := s.editor.SetScalarField(args[1], strings.Join(args[2:], " "))
		return err
	case "add":
		if len(args) < 2 {
			return errors.New("usage: add <list> [field=value ...]")
		}
		overrides := make(map[string]string)
		for _, kv := range args[2:] {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				return fmt.Errorf("expected field=value, got %q", kv)
			}
			overrides[k] = v
		}
		_, err := s.editor.AddListEntry(editor.ListName(args[1]), overrides)
		return err
	case "edit":
		if len(args) < 5 {
			return errors.New("usage: edit <list> <index> <field> <value>")
		}
		idx, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[2])
		}
		_, err = s.editor.UpdateListEntry(editor.ListName(args[1]), idx, args[3], strings.Join(args[4:], " "))
		return err
	case "delete":
		if len(args) != 3 {
			return errors.New("usage: delete <list> <index>")
		}
		idx, err := strconv.Atoi(args[2])
		if err != nil {
			return fmt.Errorf("invalid index %q", args[2])
		}
		_, err = s.editor.DeleteListEntry(editor.ListName(args[1]), idx)
		return err
	case "photo":
		if len(args) != 2 {
			return errors.New("usage: photo <file>")
		}
		return s.attachPhoto(ctx, args[1])
	case "diff":
		fmt.Fprintln(s.out, submit.String(submit.Diff(s.editor.Baseline(), s.editor.Record())))
		return nil
	case "submit":
		return s.submit(ctx)
	case "reset":
		s.editor.Reset()
		fmt.Fprintln(s.out, "Edits discarded")
		return nil
	}
	return fmt.Errorf("unknown command %q; type 'help'", args[0])
}

func (s *shell) login(ctx context.Context, email, password string) error {
	if err := s.session.BeginLogin(); err != nil {
		return err
	}
	res, err := s.client.Login(ctx, email, password)
	if err != nil {
		_ = s.session.Logout()
		return errors.New(api.Message(err, "login failed"))
	}
	if err := s.session.CompleteLogin(res.User, res.Token, res.Role); err != nil {
		_ = s.session.Logout()
		return err
	}
	s.editor = nil
	fmt.Fprintf(s.out, "Logged in as %s (%s)\n", res.User.Name, res.Role)
	return nil
}

func (s *shell) logout(ctx context.Context) error {
	if s.session.State().IsAuthenticated() {
		if err := s.client.Logout(ctx); err != nil {
			s.log.Warn("server logout failed", zap.Error(err))
		}
	}
	s.editor = nil
	if err := s.session.Logout(); err != nil {
		return err
	}
	fmt.Fprintln(s.out, "Logged out")
	return nil
}

func (s *shell) whoami() {
	st := s.session.State()
	if st.User == nil {
		fmt.Fprintf(s.out, "%s\n", s.session.Phase())
		return
	}
	fmt.Fprintf(s.out, "%s: %s <%s> role=%s id=%s\n", s.session.Phase(), st.User.Name, st.User.Email, st.Role, st.User.ID)
}

// load points f at url and waits for the result, refetching when the URL is unchanged.
func load[T any](ctx context.Context, f *fetch.Fetcher[T], url string) fetch.Result[T] {
	if f.URL() == url {
		<-f.Refetch(ctx)
	} else {
		<-f.SetURL(ctx, url)
	}
	return f.Result()
}

func (s *shell) get(ctx context.Context, path string) error {
	res := load(ctx, s.raw, path)
	if res.Error != "" {
		return errors.New(res.Error)
	}
	if len(res.Data) == 0 {
		fmt.Fprintln(s.out, "null")
		return nil
	}
	var v any
	if err := json.Unmarshal(res.Data, &v); err != nil {
		return err
	}
	return s.printJSON(v)
}

func (s *shell) listFAQs(ctx context.Context) error {
	res := load(ctx, s.faqs, apiFAQs)
	if res.Error != "" {
		return errors.New(res.Error)
	}
	for i, f := range res.Data {
		fmt.Fprintf(s.out, "%d. %s\n   %s\n", i+1, f.Question, f.Answer)
	}
	return nil
}

func (s *shell) loadProfile(ctx context.Context, id string) error {
	st := s.session.State()
	if !st.IsAuthenticated() {
		return errors.New("please log in first")
	}
	if id == "" {
		id = st.User.ID
	}
	res := load(ctx, s.profile, apiDoctors+id)
	if res.Error != "" {
		return errors.New(res.Error)
	}
	p := res.Data
	if p.ID == "" {
		p.ID = id
	}
	s.editor = editor.New(p, s.log)
	fmt.Fprintf(s.out, "Editing profile of %s\n", p.Name)
	return nil
}

func (s *shell) attachPhoto(ctx context.Context, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rec, err := s.editor.AttachPhoto(ctx, s.uploader, filepath.Base(path), f)
	if err != nil {
		return errors.New(api.Message(err, "upload failed"))
	}
	fmt.Fprintf(s.out, "Photo: %s\n", rec.Photo)
	return nil
}

func (s *shell) submit(ctx context.Context) error {
	if err := s.editor.Validate(); err != nil {
		return err
	}
	baseline, edited := s.editor.Baseline(), s.editor.Record()
	res, err := s.submitter.Submit(ctx, baseline.ID, baseline, edited)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, res.Message)

	// the submitted record becomes the new baseline
	next := edited
	if res.Profile != nil {
		next = *res.Profile
	}
	s.editor = editor.New(next, s.log)
	return nil
}

func (s *shell) printRecord(p models.DoctorProfile) error {
	return s.printJSON(p)
}

func (s *shell) printJSON(v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}
