package experiment

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/boristopalov/droidbench/pkg/task"
)

type Result struct {
	RunID     string      `json:"run_id"`
	Index     int         `json:"index"`
	Task      string      `json:"task"`
	Seed      uint64      `json:"seed"`
	Goal      string      `json:"goal"`
	Params    task.Params `json:"params"`
	Score     float64     `json:"score"`
	SubScores []float64   `json:"sub_scores,omitempty"`
	Stable    bool        `json:"stable"`
	Err       error       `json:"-"`
	Started   time.Time   `json:"started"`
	Finished  time.Time   `json:"finished"`
}

func (r Result) Duration() time.Duration {
	return r.Finished.Sub(r.Started)
}

// ErrMessage is the run's error text, empty on success.
func (r Result) ErrMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}

func (r Result) MarshalJSON() ([]byte, error) {
	type plain Result
	return json.Marshal(struct {
		plain
		Error      string `json:"error,omitempty"`
		DurationMS int64  `json:"duration_ms"`
	}{plain(r), r.ErrMessage(), r.Duration().Milliseconds()})
}

var csvHeader = []string{"run_id", "index", "task", "seed", "score", "sub_scores", "stable", "duration_ms", "error", "goal", "params"}

func WriteCSV(w io.Writer, results []Result) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, r := range results {
		params, err := json.Marshal(r.Params)
		if err != nil {
			return fmt.Errorf("run %s: %w", r.RunID, err)
		}
		subs := make([]string, len(r.SubScores))
		for i, s := range r.SubScores {
			subs[i] = formatScore(s)
		}
		record := []string{
			r.RunID,
			strconv.Itoa(r.Index),
			r.Task,
			strconv.FormatUint(r.Seed, 10),
			formatScore(r.Score),
			strings.Join(subs, ";"),
			strconv.FormatBool(r.Stable),
			strconv.FormatInt(r.Duration().Milliseconds(), 10),
			r.ErrMessage(),
			r.Goal,
			string(params),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteJSON(w io.Writer, results []Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if results == nil {
		results = []Result{}
	}
	return enc.Encode(results)
}

func formatScore(s float64) string {
	return strconv.FormatFloat(s, 'f', -1, 64)
}

type TaskSummary struct {
	Task      string
	Runs      int
	Failed    int
	MeanScore float64
	Successes int
}

// Summary aggregates results per task. Failed runs count toward Runs but not
// toward the mean.
type Summary struct {
	Runs      int
	Failed    int
	MeanScore float64
	Tasks     []TaskSummary
}

func Summarize(results []Result) Summary {
	byTask := make(map[string]*TaskSummary)
	scores := make(map[string][]float64)
	var all []float64
	var s Summary
	for _, r := range results {
		ts, ok := byTask[r.Task]
		if !ok {
			ts = &TaskSummary{Task: r.Task}
			byTask[r.Task] = ts
		}
		ts.Runs++
		s.Runs++
		if r.Err != nil {
			ts.Failed++
			s.Failed++
			continue
		}
		if r.Score == 1 {
			ts.Successes++
		}
		scores[r.Task] = append(scores[r.Task], r.Score)
		all = append(all, r.Score)
	}
	s.MeanScore = task.Mean(all)
	for name, ts := range byTask {
		ts.MeanScore = task.Mean(scores[name])
		s.Tasks = append(s.Tasks, *ts)
	}
	slices.SortFunc(s.Tasks, func(a, b TaskSummary) int {
		return strings.Compare(a.Task, b.Task)
	})
	return s
}

// Print writes a fixed-width table of the summary.
func (s Summary) Print(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%-48s %5s %6s %8s %6s\n", "TASK", "RUNS", "FAILED", "SUCCESS", "MEAN"); err != nil {
		return err
	}
	for _, t := range s.Tasks {
		if _, err := fmt.Fprintf(w, "%-48s %5d %6d %8d %6.3f\n", t.Task, t.Runs, t.Failed, t.Successes, t.MeanScore); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "%-48s %5d %6d %8s %6.3f\n", "TOTAL", s.Runs, s.Failed, "", s.MeanScore)
	return err
}
