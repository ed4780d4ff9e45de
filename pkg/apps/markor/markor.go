// Package markor covers note creation and editing in the Markor editor. Notes are
// checked by reading the file back from the device.
package markor

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path"
	"slices"
	"strings"

	"github.com/boristopalov/droidbench/pkg/device"
	"github.com/boristopalov/droidbench/pkg/environment"
	"github.com/boristopalov/droidbench/pkg/probe"
	"github.com/boristopalov/droidbench/pkg/task"
)

const (
	App     = "markor"
	Package = "net.gsantner.markor"
	DataDir = "/sdcard/Documents/Markor"
)

const (
	EditHeader  = "header"
	EditFooter  = "footer"
	EditReplace = "replace"
)

var EditTypes = []string{EditHeader, EditFooter, EditReplace}

// noteTitles is the shared pool of note names, also used to pick noise files.
var noteTitles = []string{
	"grocery_list", "meeting_notes", "project_ideas", "travel_plans", "book_summary",
	"workout_routine", "recipe_collection", "budget_plan", "reading_list", "daily_journal",
	"shopping_list", "birthday_gifts", "movie_watchlist", "study_schedule", "garden_plans",
}

var noteSentences = []string{
	"Call the dentist on Monday.",
	"Remember to water the plants.",
	"Quarterly review moved to Thursday.",
	"Pick up the dry cleaning after work.",
	"Draft the proposal before the weekend.",
	"Buy eggs, milk and bread.",
	"Finish chapter four of the novel.",
	"Renew the car insurance this month.",
}

// NoteTitles returns a copy of the note-title pool.
func NoteTitles() []string {
	return slices.Clone(noteTitles)
}

func randomFileName(r *rand.Rand) string {
	return fmt.Sprintf("%s_%d.md", noteTitles[r.IntN(len(noteTitles))], r.IntN(100))
}

func randomSentence(r *rand.Rand) string {
	return noteSentences[r.IntN(len(noteSentences))]
}

var CreateNote = &task.Definition{
	Name: "MarkorCreateNote",
	App:  App,
	Schema: task.ObjectSchema(map[string]any{
		"file_name": map[string]any{"type": "string"},
		"text":      map[string]any{"type": "string"},
	}, "file_name", "text"),
	Template: task.StaticTemplate("Create a new note in Markor named {file_name} with the following text: {text}"),
	GenerateParams: func(r *rand.Rand) task.Params {
		return task.Params{"file_name": randomFileName(r), "text": randomSentence(r)}
	},
	Factory: func(p task.Params) (task.Evaluator, error) {
		name, err := fileName(p)
		if err != nil {
			return nil, err
		}
		text, err := p.String("text")
		if err != nil {
			return nil, err
		}
		return &noteContent{fileName: name, want: text}, nil
	},
}

var EditNote = &task.Definition{
	Name: "MarkorEditNote",
	App:  App,
	Schema: task.ObjectSchema(map[string]any{
		"file_name":     map[string]any{"type": "string"},
		"edit_type":     map[string]any{"type": "string", "enum": []any{EditHeader, EditFooter, EditReplace}},
		"header":        map[string]any{"type": "string"},
		"footer":        map[string]any{"type": "string"},
		"replace_text":  map[string]any{"type": "string"},
		"original_text": map[string]any{"type": "string"},
	}, "file_name", "edit_type"),
	Template: editTemplate,
	GenerateParams: func(r *rand.Rand) task.Params {
		return task.Params{
			"file_name":     randomFileName(r),
			"edit_type":     EditTypes[r.IntN(len(EditTypes))],
			"header":        randomSentence(r),
			"footer":        randomSentence(r),
			"replace_text":  randomSentence(r),
			"original_text": randomSentence(r),
		}
	},
	Factory: newEditNote,
}

// editTemplate keeps unknown edit types presentable; construction rejects them.
func editTemplate(p task.Params) string {
	editType, _ := p.String("edit_type")
	switch editType {
	case EditHeader:
		return "Edit {file_name} in Markor. Add to the top of the note {header}"
	case EditFooter:
		return "Edit {file_name} in Markor. Add to the bottom of the note {footer}"
	case EditReplace:
		return "Edit {file_name} in Markor. Replace the text with {replace_text}"
	default:
		return "Invalid edit_type for {file_name}"
	}
}

func newEditNote(p task.Params) (task.Evaluator, error) {
	name, err := fileName(p)
	if err != nil {
		return nil, err
	}
	editType, err := p.OneOf("edit_type", EditTypes...)
	if err != nil {
		return nil, err
	}
	original := "Original note content."
	if _, ok := p["original_text"]; ok {
		if original, err = p.String("original_text"); err != nil {
			return nil, err
		}
	}

	var want string
	switch editType {
	case EditHeader:
		header, err := p.String("header")
		if err != nil {
			return nil, err
		}
		want = header + "\n\n" + original
	case EditFooter:
		footer, err := p.String("footer")
		if err != nil {
			return nil, err
		}
		want = original + "\n\n" + footer
	case EditReplace:
		if want, err = p.String("replace_text"); err != nil {
			return nil, err
		}
	}
	return &noteContent{fileName: name, want: want, seed: original, seeded: true}, nil
}

func fileName(p task.Params) (string, error) {
	name, err := p.String("file_name")
	if err != nil {
		return "", err
	}
	if name == "" || path.Base(name) != name {
		return "", &task.InvalidParameterError{Key: "file_name", Value: name, Reason: "must be a plain file name"}
	}
	return name, nil
}

// noteContent passes when DataDir/fileName holds want, ignoring surrounding whitespace.
// Initialize empties DataDir so leftover notes cannot pass; when seeded it then
// writes seed into the note.
type noteContent struct {
	fileName string
	want     string
	seed     string
	seeded   bool
}

func (n *noteContent) Initialize(ctx context.Context, env environment.Environment) error {
	d := env.Device()
	if err := device.ClearDir(ctx, d, DataDir); err != nil {
		return err
	}
	if n.seeded {
		return device.WriteFile(ctx, d, path.Join(DataDir, n.fileName), n.seed)
	}
	return nil
}

func (n *noteContent) IsSuccessful(ctx context.Context, env environment.Environment) (float64, error) {
	d := env.Device()
	snap, err := probe.List(ctx, d, DataDir)
	if err != nil {
		return 0, err
	}
	if !snap.Has(n.fileName) {
		return 0, nil
	}
	got, err := device.ReadFile(ctx, d, path.Join(DataDir, n.fileName))
	if err != nil {
		return 0, err
	}
	if strings.TrimSpace(got) == strings.TrimSpace(n.want) {
		return 1, nil
	}
	return 0, nil
}

func (n *noteContent) TearDown(ctx context.Context, env environment.Environment) error {
	return device.ClearDir(ctx, env.Device(), DataDir)
}
