package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"mime"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/yungbote/coursecast-backend/internal/app"
	"github.com/yungbote/coursecast-backend/internal/domain/course"
	"github.com/yungbote/coursecast-backend/internal/media/store"
	"github.com/yungbote/coursecast-backend/internal/modules/playback"
	"github.com/yungbote/coursecast-backend/internal/modules/progression"
	"github.com/yungbote/coursecast-backend/internal/pkg/dbctx"
	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/session"
)

type options struct {
	user    string
	doc     string
	topic   string
	out     string
	resume  bool
	list    bool
	region  string
	gender  string
	name    string
	answers string
	rating  int
	comment string
}

func main() {
	var opts options
	flag.StringVar(&opts.user, "user", "", "profile display name (created when missing)")
	flag.StringVar(&opts.doc, "doc", "", "document to build the course from")
	flag.StringVar(&opts.topic, "topic", "", "topic id to generate (default: first open topic)")
	flag.StringVar(&opts.out, "out", "out", "output directory")
	flag.BoolVar(&opts.resume, "resume", false, "with -doc, re-supply the document of the saved course instead of rebuilding it")
	flag.BoolVar(&opts.list, "list", false, "list known profiles and exit")
	flag.StringVar(&opts.region, "region", "", "tutor region (African, European, Asian, American)")
	flag.StringVar(&opts.gender, "gender", "", "tutor gender (Male, Female)")
	flag.StringVar(&opts.name, "name", "", "tutor name")
	flag.StringVar(&opts.answers, "answers", "", "comma separated option indexes answering the saved quiz (written to quiz.json by a previous run)")
	flag.IntVar(&opts.rating, "rating", 0, "rate the lesson 1..5")
	flag.StringVar(&opts.comment, "comment", "", "feedback comment")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close(context.Background())

	if err := run(ctx, application, opts); err != nil {
		application.Log.Error("Run failed", "error", err, "kind", apperr.KindOf(err))
		fmt.Fprintln(os.Stderr, describe(err))
		application.Close(context.Background())
		os.Exit(1)
	}
}

func run(ctx context.Context, a *app.App, opts options) error {
	if opts.list {
		profiles, err := a.Repos.Profile.List(dbctx.Context{Ctx: ctx})
		if err != nil {
			return err
		}
		for _, p := range profiles {
			fmt.Printf("%s\t%s\t%s\n", p.ID, p.DisplayName, p.CreatedAt.Format("2006-01-02"))
		}
		return nil
	}
	if strings.TrimSpace(opts.user) == "" {
		return errors.New("-user is required")
	}

	profile, err := a.EnsureProfile(ctx, opts.user)
	if err != nil {
		return err
	}
	sess, err := a.OpenSession(ctx, profile.ID)
	if err != nil {
		return err
	}
	defer sess.Close(context.WithoutCancel(ctx))

	if opts.answers != "" {
		if opts.doc != "" || opts.topic != "" {
			return errors.New("-answers submits the saved quiz and cannot be combined with -doc or -topic")
		}
		return submitAnswers(ctx, sess, opts.answers)
	}

	if opts.region != "" || opts.gender != "" || opts.name != "" {
		p := sess.Persona()
		if opts.region != "" {
			p.Region = course.Region(opts.region)
		}
		if opts.gender != "" {
			p.Gender = course.Gender(opts.gender)
		}
		if opts.name != "" {
			p.Name = opts.name
		}
		if err := sess.SetPersona(ctx, p); err != nil {
			return err
		}
	}

	if opts.doc != "" {
		doc, err := readDocument(opts.doc)
		if err != nil {
			return err
		}
		if opts.resume && sess.Outline() != nil {
			err = sess.ProvideDocument(ctx, doc)
		} else {
			_, err = sess.AnalyzeDocument(ctx, doc)
		}
		if err != nil {
			return err
		}
	}

	outline := sess.Outline()
	if outline == nil {
		return errors.New("no saved course: pass -doc to build one")
	}
	printOutline(outline)

	topicID := opts.topic
	if topicID == "" {
		t := progression.FirstOpen(outline)
		if t == nil {
			return errors.New("course has no topics")
		}
		topicID = t.ID
	}

	lesson, err := sess.SelectTopic(ctx, topicID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.out, 0o755); err != nil {
		return err
	}
	if err := writeLesson(ctx, a.Clients.Media, opts.out, lesson); err != nil {
		return err
	}
	if lesson.Media.ImageDegraded {
		fmt.Println("note: lesson image unavailable, placeholder used")
	}

	if opts.rating != 0 {
		if _, err := sess.AddFeedback(ctx, course.FeedbackLesson, opts.rating, opts.comment); err != nil {
			return err
		}
	}

	quiz, err := sess.StartQuiz(ctx)
	if err != nil {
		return err
	}
	if err := writeJSON(filepath.Join(opts.out, "quiz.json"), newQuizFile(lesson.TopicID, quiz)); err != nil {
		return err
	}
	fmt.Printf("wrote lesson and quiz for %q to %s\n", lesson.TopicTitle, opts.out)
	fmt.Printf("answer the quiz with: -user %q -answers <option index per question, comma separated>\n", opts.user)
	return nil
}

// submitAnswers scores answers against the quiz saved by an earlier run.
func submitAnswers(ctx context.Context, sess *session.Session, raw string) error {
	pending := sess.PendingQuiz()
	if pending == nil {
		return errors.New("no quiz is waiting for answers: run without -answers to generate one")
	}
	answers, err := parseAnswers(raw)
	if err != nil {
		return err
	}
	res, err := sess.SubmitQuiz(ctx, answers)
	if err != nil {
		return err
	}
	fmt.Printf("quiz %s: %d/%d correct (need %d) passed=%v\n", res.TopicID, res.Correct, res.Total, res.Required, res.Passed)
	for _, q := range res.Missed {
		fmt.Printf("  missed %q: %s\n", q.Question, q.Explanation)
	}
	if res.Next != "" {
		fmt.Printf("unlocked %s\n", res.Next)
	}
	if !res.Passed {
		fmt.Println("run again without -answers for a new quiz")
	}
	return nil
}

type quizFileQuestion struct {
	ID       string   `json:"id"`
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

// quizFile is what the learner sees: answers and explanations stay in the saved state.
type quizFile struct {
	TopicID   string             `json:"topicId"`
	Questions []quizFileQuestion `json:"questions"`
}

func newQuizFile(topicID string, qs []course.QuizQuestion) quizFile {
	f := quizFile{TopicID: topicID}
	for _, q := range qs {
		f.Questions = append(f.Questions, quizFileQuestion{ID: q.ID, Question: q.Question, Options: q.Options})
	}
	return f
}

func readDocument(path string) (*course.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path)))
	if mt == "" {
		mt = http.DetectContentType(data)
	}
	return &course.Document{Name: filepath.Base(path), MimeType: mt, Data: data}, nil
}

type timelineEntry struct {
	At        string `json:"at"`
	Paragraph string `json:"paragraph"`
}

type lessonFile struct {
	TopicID       string                `json:"topicId"`
	TopicTitle    string                `json:"topicTitle"`
	Lesson        *course.LessonContent `json:"lesson"`
	Duration      string                `json:"duration"`
	ImageDegraded bool                  `json:"imageDegraded"`
	Image         string                `json:"image,omitempty"`
	Timeline      []timelineEntry       `json:"timeline"`
}

func writeLesson(ctx context.Context, media store.Store, dir string, l *session.Lesson) error {
	f := lessonFile{
		TopicID:       l.TopicID,
		TopicTitle:    l.TopicTitle,
		Lesson:        l.Content,
		Duration:      playback.FormatTimestamp(l.Media.AudioSeconds),
		ImageDegraded: l.Media.ImageDegraded,
	}
	if !l.Media.Image.IsZero() {
		uri, err := store.OpenDataURI(ctx, media, l.Media.Image)
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		f.Image = uri
	}
	// Each paragraph starts when its first word becomes active.
	for p, words := range l.Transcript.Paragraphs {
		idx := l.Transcript.Index(p, 0)
		at := 0.0
		if l.Transcript.Words > 0 {
			at = float64(idx) / float64(l.Transcript.Words) * l.Media.AudioSeconds
		}
		f.Timeline = append(f.Timeline, timelineEntry{At: playback.FormatTimestamp(at), Paragraph: strings.Join(words, " ")})
	}
	if err := writeJSON(filepath.Join(dir, "lesson.json"), f); err != nil {
		return err
	}

	for name, h := range map[string]store.Handle{"lesson.wav": l.Media.Audio, "lesson.png": l.Media.Image} {
		if h.IsZero() {
			continue
		}
		data, _, err := media.Open(ctx, h.Key)
		if err != nil {
			return fmt.Errorf("open %s: %w", name, err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			return err
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}

func parseAnswers(s string) ([]int, error) {
	parts := strings.Split(s, ",")
	out := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("invalid answer %q", p)
		}
		out = append(out, n)
	}
	return out, nil
}

func printOutline(o *course.CourseOutline) {
	fmt.Println(o.Title)
	for _, ch := range o.Chapters {
		fmt.Printf("  %s\n", ch.Title)
		for _, t := range ch.Topics {
			mark := " "
			switch {
			case t.Completed:
				mark = "x"
			case t.Locked:
				mark = "-"
			}
			fmt.Printf("    [%s] %s  %s\n", mark, t.ID, t.Title)
		}
	}
}

func describe(err error) string {
	switch {
	case apperr.KindOf(err) != "":
		return apperr.UserMessage(err)
	case errors.Is(err, session.ErrTopicLocked):
		return "That topic is locked. Pass the previous topic's quiz first."
	default:
		return err.Error()
	}
}
