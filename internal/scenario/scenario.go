// Package scenario holds the branching scenario graph: scenes, their choices
// and the read-only ordered set the player walks.
package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

const (
	TokenReview = "#REVIEW"
	TokenExit   = "#SCENARIO_SELECT"
)

// Answer fragments the older data files use instead of the control tokens.
const (
	reviewAnswerHint = "복습"
	exitAnswerHint   = "다음 시나리오"
)

type NextKind int

const (
	NextEnd NextKind = iota
	NextScene
	NextReview
	NextExit
)

func (k NextKind) String() string {
	switch k {
	case NextScene:
		return "scene"
	case NextReview:
		return "review"
	case NextExit:
		return "exit"
	default:
		return "end"
	}
}

// Next is the forward edge of a choice. Only NextScene carries a scene id;
// whether that id resolves is decided against a Set at traversal time.
type Next struct {
	Kind    NextKind
	SceneID string
}

func ToScene(id string) Next {
	if strings.TrimSpace(id) == "" {
		return Next{Kind: NextEnd}
	}
	return Next{Kind: NextScene, SceneID: id}
}

func ReviewNext() Next { return Next{Kind: NextReview} }

func ExitNext() Next { return Next{Kind: NextExit} }

func EndNext() Next { return Next{Kind: NextEnd} }

// ParseNext classifies a raw nextId value.
func ParseNext(raw string) Next {
	switch strings.TrimSpace(raw) {
	case "":
		return EndNext()
	case TokenReview:
		return ReviewNext()
	case TokenExit:
		return ExitNext()
	default:
		return ToScene(strings.TrimSpace(raw))
	}
}

// Raw returns the wire form of the edge.
func (n Next) Raw() string {
	switch n.Kind {
	case NextScene:
		return n.SceneID
	case NextReview:
		return TokenReview
	case NextExit:
		return TokenExit
	default:
		return ""
	}
}

func (n Next) String() string {
	if n.Kind == NextScene {
		return "scene:" + n.SceneID
	}
	return n.Kind.String()
}

type Points struct {
	Speed    float64
	Accuracy float64
}

type Choice struct {
	AnswerID string
	Answer   string
	Reaction string
	Next     Next
	Points   Points
	EXP      float64
	// IsCorrect mirrors the optional flag some data files carry; traversal
	// ignores it and uses Correct.
	IsCorrect *bool
}

// Correct reports whether the choice scores accuracy points. There is no
// partial credit beyond this threshold.
func (c Choice) Correct() bool {
	return c.Points.Accuracy > 0
}

type Scene struct {
	ID      string
	Title   string
	Content string
	Script  string
	Options []Choice

	ScenarioCode   string
	DisasterType   string
	RiskLevel      string
	Difficulty     string
	Status         string
	ApprovalStatus string
	Order          int
	TeamID         int
}

func (s Scene) Choice(answerID string) (Choice, bool) {
	for _, option := range s.Options {
		if option.AnswerID == answerID {
			return option, true
		}
	}
	return Choice{}, false
}

type wirePoints struct {
	Speed    float64 `json:"speed"`
	Accuracy float64 `json:"accuracy"`
}

type wireChoice struct {
	AnswerID  string      `json:"answerId"`
	Answer    string      `json:"answer"`
	Reaction  string      `json:"reaction"`
	NextID    string      `json:"nextId,omitempty"`
	Points    *wirePoints `json:"points,omitempty"`
	EXP       float64     `json:"exp,omitempty"`
	IsCorrect *bool       `json:"isCorrect,omitempty"`
}

type wireScene struct {
	SceneID        string       `json:"sceneId"`
	Title          string       `json:"title"`
	Content        string       `json:"content"`
	SceneScript    string       `json:"sceneScript"`
	Options        []wireChoice `json:"options"`
	ScenarioCode   string       `json:"scenarioCode,omitempty"`
	DisasterType   string       `json:"disasterType,omitempty"`
	RiskLevel      string       `json:"riskLevel,omitempty"`
	Difficulty     string       `json:"difficulty,omitempty"`
	Status         string       `json:"status,omitempty"`
	ApprovalStatus string       `json:"approvalStatus,omitempty"`
	Order          int          `json:"order,omitempty"`
	TeamID         int          `json:"teamId,omitempty"`
}

// Decode parses a JSON array of scenes. Edges are kept exactly as written.
func Decode(data []byte) ([]Scene, error) {
	var items []wireScene
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("decoding scenes: %w", err)
	}

	scenes := make([]Scene, 0, len(items))
	for _, item := range items {
		scenes = append(scenes, sceneFromWire(item))
	}
	return scenes, nil
}

// Encode writes scenes back in the wire format.
func Encode(scenes []Scene) ([]byte, error) {
	items := make([]wireScene, 0, len(scenes))
	for _, scene := range scenes {
		items = append(items, sceneToWire(scene))
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encoding scenes: %w", err)
	}
	return data, nil
}

func (s Scene) MarshalJSON() ([]byte, error) {
	return json.Marshal(sceneToWire(s))
}

func (s *Scene) UnmarshalJSON(data []byte) error {
	var item wireScene
	if err := json.Unmarshal(data, &item); err != nil {
		return err
	}
	*s = sceneFromWire(item)
	return nil
}

func sceneFromWire(item wireScene) Scene {
	scene := Scene{
		ID:             item.SceneID,
		Title:          item.Title,
		Content:        item.Content,
		Script:         item.SceneScript,
		ScenarioCode:   item.ScenarioCode,
		DisasterType:   item.DisasterType,
		RiskLevel:      item.RiskLevel,
		Difficulty:     item.Difficulty,
		Status:         item.Status,
		ApprovalStatus: item.ApprovalStatus,
		Order:          item.Order,
		TeamID:         item.TeamID,
	}
	if len(item.Options) > 0 {
		scene.Options = make([]Choice, 0, len(item.Options))
	}
	for _, option := range item.Options {
		choice := Choice{
			AnswerID:  option.AnswerID,
			Answer:    option.Answer,
			Reaction:  option.Reaction,
			Next:      ParseNext(option.NextID),
			EXP:       option.EXP,
			IsCorrect: option.IsCorrect,
		}
		if option.Points != nil {
			choice.Points = Points{Speed: option.Points.Speed, Accuracy: option.Points.Accuracy}
		}
		scene.Options = append(scene.Options, choice)
	}
	return scene
}

// Route is the edge traversal follows. With textFallback, an answer that
// mentions a review or the next scenario acts as that control token; the
// stored edge is left untouched.
func (c Choice) Route(textFallback bool) Next {
	if !textFallback || c.Next.Kind == NextReview || c.Next.Kind == NextExit {
		return c.Next
	}
	if strings.Contains(c.Answer, reviewAnswerHint) {
		return ReviewNext()
	}
	if strings.Contains(c.Answer, exitAnswerHint) {
		return ExitNext()
	}
	return c.Next
}

func sceneToWire(scene Scene) wireScene {
	item := wireScene{
		SceneID:        scene.ID,
		Title:          scene.Title,
		Content:        scene.Content,
		SceneScript:    scene.Script,
		Options:        make([]wireChoice, 0, len(scene.Options)),
		ScenarioCode:   scene.ScenarioCode,
		DisasterType:   scene.DisasterType,
		RiskLevel:      scene.RiskLevel,
		Difficulty:     scene.Difficulty,
		Status:         scene.Status,
		ApprovalStatus: scene.ApprovalStatus,
		Order:          scene.Order,
		TeamID:         scene.TeamID,
	}
	for _, option := range scene.Options {
		item.Options = append(item.Options, wireChoice{
			AnswerID:  option.AnswerID,
			Answer:    option.Answer,
			Reaction:  option.Reaction,
			NextID:    option.Next.Raw(),
			Points:    &wirePoints{Speed: option.Points.Speed, Accuracy: option.Points.Accuracy},
			EXP:       option.EXP,
			IsCorrect: option.IsCorrect,
		})
	}
	return item
}
