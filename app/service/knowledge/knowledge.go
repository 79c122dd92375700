package knowledge

import (
	"fmt"
	"os"
	"strings"

	"clubintake/app/config"

	"github.com/elliotchance/pie/v2"
	"github.com/samber/do"
	"github.com/samber/oops"
	"gopkg.in/yaml.v3"
)

const noInfo = "정보 없음"

var defaultPositions = []string{"기획자", "디자이너", "프론트엔드", "백엔드", "AI 포지션"}

// Base is the static club knowledge injected into prompts.
type Base struct {
	Name      string
	Intro     string
	Positions []string
	// Data is the rendered activities, audience, recruitment, FAQ and contact sections.
	Data string
}

type clubInfo struct {
	ClubName       string      `yaml:"clubName"`
	Introduction   string      `yaml:"introduction"`
	Positions      []string    `yaml:"positions"`
	Activities     []activity  `yaml:"activities"`
	TargetAudience string      `yaml:"targetAudience"`
	Recruitment    recruitment `yaml:"recruitment"`
	FAQ            []faq       `yaml:"faq"`
	Contact        string      `yaml:"contact"`
}

type activity struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type recruitment struct {
	Period     string `yaml:"period"`
	HowToApply string `yaml:"howToApply"`
}

type faq struct {
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

func New(di *do.Injector) (*Base, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return Load(cfg.Club.InfoPath)
}

// Load reads the club info file. JSON files are accepted as they are valid YAML.
func Load(path string) (*Base, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, oops.Errorf("failed to read club info file: %w", err)
	}

	return Parse(data)
}

func Parse(data []byte) (*Base, error) {
	var info clubInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, oops.Errorf("failed to parse club info: %w", err)
	}

	var positions []string
	for _, p := range pie.Map(info.Positions, strings.TrimSpace) {
		if p != "" && !pie.Contains(positions, p) {
			positions = append(positions, p)
		}
	}
	if len(positions) == 0 {
		positions = defaultPositions
	}

	return &Base{
		Name:      orDefault(info.ClubName, "동아리 이름 없음"),
		Intro:     orDefault(info.Introduction, "동아리 소개 없음"),
		Positions: positions,
		Data:      renderData(&info),
	}, nil
}

func renderData(info *clubInfo) string {
	var lines []string

	lines = append(lines, "- 주요 활동:")
	for _, a := range info.Activities {
		lines = append(lines, fmt.Sprintf("  - %s: %s", a.Name, a.Description))
	}

	lines = append(lines, fmt.Sprintf("\n- 모집 대상: %s", orDefault(info.TargetAudience, noInfo)))
	lines = append(lines, fmt.Sprintf("\n- 모집 기간: %s", orDefault(info.Recruitment.Period, noInfo)))
	lines = append(lines, fmt.Sprintf("- 지원 방법: %s", orDefault(info.Recruitment.HowToApply, noInfo)))

	lines = append(lines, "\n- 자주 묻는 질문(FAQ):")
	for _, f := range info.FAQ {
		lines = append(lines, fmt.Sprintf("  - Q: %s A: %s", f.Question, f.Answer))
	}

	lines = append(lines, fmt.Sprintf("\n- 문의: %s", orDefault(info.Contact, noInfo)))

	return strings.Join(lines, "\n")
}

// PositionList renders the position vocabulary for prompts and replies.
func (b *Base) PositionList() string {
	return strings.Join(b.Positions, ", ")
}

// Text is the full knowledge blob handed to the Q&A prompt.
func (b *Base) Text() string {
	return fmt.Sprintf("- 동아리 이름: %s\n- 소개: %s\n%s\n\n- 모집 포지션: %s",
		b.Name, b.Intro, b.Data, b.PositionList())
}

// MatchPositions keeps the values that name a known position, in vocabulary
// spelling and without duplicates. Matching ignores case and surrounding space.
func (b *Base) MatchPositions(values []string) []string {
	result := make([]string, 0, len(values))

	for _, value := range values {
		value = strings.ToLower(strings.TrimSpace(value))

		index := pie.FindFirstUsing(b.Positions, func(p string) bool {
			return strings.ToLower(p) == value
		})
		if index < 0 {
			continue
		}

		if !pie.Contains(result, b.Positions[index]) {
			result = append(result, b.Positions[index])
		}
	}

	return result
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}

	return value
}
