package emotion

import (
	"regexp"
	"strings"
)

// Emotion is one of the fixed prosody labels shared by script authoring and
// TTS voice selection.
type Emotion string

const (
	Neutral Emotion = "neutral"
	Happy   Emotion = "happy"
	Serious Emotion = "serious"
	Excited Emotion = "excited"
	Calm    Emotion = "calm"
	Sad     Emotion = "sad"
	Angry   Emotion = "angry"
)

// labelOrder fixes iteration order so ties resolve the same way on every run.
var labelOrder = []Emotion{Neutral, Happy, Serious, Excited, Calm, Sad, Angry}

// Result is one deterministic detection outcome.
type Result struct {
	Emotion    Emotion `json:"emotion"`
	Confidence float64 `json:"confidence"`
	Intensity  float64 `json:"intensity"`
}

// rule holds the weighted signals for one emotion. Weights sit in the
// 1.0-2.0 band; excited and angry are weighted highest because their signals
// are rare and strong.
type rule struct {
	weight   float64
	keywords []string
	patterns []*regexp.Regexp
}

const neutralBaseline = 1.0

// Punctuation bumps. The mild bumps must clear the neutral baseline so a lone
// exclamation mark still resolves to happy.
const (
	excitedRunBump    = 2.5
	happyBangBump     = 1.2
	happyQuestionMark = 1.1
	seriousEllipsis   = 1.1
)

var (
	bangRunRe  = regexp.MustCompile(`[!！]+`)
	questionRe = regexp.MustCompile(`[?？]`)
	ellipsisRe = regexp.MustCompile(`\.{3}|…+`)
)

var rules = map[Emotion]rule{
	Happy: {
		weight: 1.4,
		keywords: []string{
			"开心", "高兴", "太棒了", "真好", "喜欢", "有趣", "不错",
			"嬉しい", "楽しい", "happy", "glad", "great", "nice", "wonderful",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`[哈嘿]{2,}`),
			regexp.MustCompile(`(?i)\bha(ha)+\b`),
			regexp.MustCompile(`～`),
		},
	},
	Serious: {
		weight: 1.3,
		keywords: []string{
			"注意", "重要", "必须", "关键", "证明", "结论", "定义", "原理",
			"大事", "重大", "important", "must", "careful", "critical", "theorem",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`首先|其次|综上`),
		},
	},
	Excited: {
		weight: 2.0,
		keywords: []string{
			"激动", "兴奋", "厉害", "惊人", "amazing", "incredible", "awesome",
			"すごい", "やばい", "难以置信",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`[!！]{2,}`),
			regexp.MustCompile(`[哇噢]`),
		},
	},
	Calm: {
		weight: 1.2,
		keywords: []string{
			"平静", "慢慢", "放松", "稳定", "从容", "calm", "gently", "slowly",
			"落ち着",
		},
	},
	Sad: {
		weight: 1.5,
		keywords: []string{
			"难过", "伤心", "遗憾", "可惜", "失望", "哭", "sad", "sorry", "unfortunately",
			"悲しい", "寂しい",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`呜+|唉`),
			regexp.MustCompile(`T_T|QAQ`),
		},
	},
	Angry: {
		weight: 1.8,
		keywords: []string{
			"生气", "愤怒", "讨厌", "烦", "可恶", "angry", "hate", "annoying",
			"怒", "うるさい",
		},
		patterns: []*regexp.Regexp{
			regexp.MustCompile(`哼+`),
		},
	},
}

// intensityNorm bounds the raw factor total before it scales confidence.
const intensityNorm = 5.0

// Detector scores free text against weighted keyword and punctuation rules.
// Detection is pure: identical text always yields an identical Result, which
// the audio cache key depends on.
type Detector struct{}

func NewDetector() *Detector {
	return &Detector{}
}

// Detect returns the highest-scoring emotion for text. Text with no signal
// resolves to neutral through its fixed baseline score.
func (d *Detector) Detect(text string) Result {
	scores := map[Emotion]float64{Neutral: neutralBaseline}
	lower := strings.ToLower(text)

	for label, r := range rules {
		score := 0.0
		for _, kw := range r.keywords {
			score += float64(strings.Count(lower, strings.ToLower(kw))) * r.weight
		}
		for _, pat := range r.patterns {
			score += float64(len(pat.FindAllString(text, -1))) * r.weight
		}
		scores[label] += score
	}

	d.scorePunctuation(text, scores)

	winner, winScore, total := Neutral, 0.0, 0.0
	for _, label := range labelOrder {
		score := scores[label]
		total += score
		if score > winScore {
			winner, winScore = label, score
		}
	}

	confidence := 0.0
	if total > 0 {
		confidence = winScore / total
	}
	raw := winScore / intensityNorm
	if raw > 1 {
		raw = 1
	}

	return Result{
		Emotion:    winner,
		Confidence: confidence,
		Intensity:  raw * confidence,
	}
}

// scorePunctuation adds the shape signals: a run of two or more exclamation
// marks reads as excited, a lone one as mildly happy, question marks as
// mildly happy, ellipsis as mildly serious.
func (d *Detector) scorePunctuation(text string, scores map[Emotion]float64) {
	for _, run := range bangRunRe.FindAllString(text, -1) {
		if len([]rune(run)) >= 2 {
			scores[Excited] += excitedRunBump
		} else {
			scores[Happy] += happyBangBump
		}
	}
	if questionRe.MatchString(text) {
		scores[Happy] += happyQuestionMark
	}
	if ellipsisRe.MatchString(text) {
		scores[Serious] += seriousEllipsis
	}
}
