package photoscore

// PromptBankVersion identifies the prompt set. It participates in embedding
// cache keys so editing prompts invalidates cached vectors.
const PromptBankVersion = "2025.1"

// Evaluation axes scored in stage 2, in the order they are computed.
const (
	DimTechnical   = "technical"
	DimComposition = "composition"
	DimLighting    = "lighting"
)

// Dimensions returns the detailed evaluation axes in a stable order.
func Dimensions() []string {
	return []string{DimTechnical, DimComposition, DimLighting}
}

// PromptBank is the static set of prompt groups the scorer evaluates images
// against. Each group holds a couple of phrasings of one semantic axis; the
// similarity engine averages over them to smooth wording effects. The content
// is immutable after construction.
type PromptBank struct {
	Version  string
	Quick    []string
	Detailed map[string][]string
	Category map[Category][]string
	Negative []string
}

// DefaultPromptBank returns the built-in prompt set.
func DefaultPromptBank() *PromptBank {
	return &PromptBank{
		Version: PromptBankVersion,
		// Universal quality indicators for the stage-1 filter. Simple
		// prompts discriminate better than elaborate ones here.
		Quick: []string{
			"a high quality professional photograph",
			"an aesthetically pleasing image with good composition",
		},
		Detailed: map[string][]string{
			DimTechnical: {
				"sharp focus and excellent exposure",
				"professional color grading and contrast",
			},
			DimComposition: {
				"well-balanced composition with strong visual structure",
				"compelling framing following photographic principles",
			},
			DimLighting: {
				"beautiful natural lighting with great atmosphere",
				"dramatic light creating visual interest",
			},
		},
		Category: map[Category][]string{
			CategoryLandscape: {
				"a stunning landscape photograph with dramatic scenery",
				"breathtaking natural vista with excellent depth",
			},
			CategoryCityscape: {
				"an impressive urban photograph with compelling architecture",
				"striking city skyline with great composition",
			},
			CategoryArchitecture: {
				"beautiful architectural photography with clean lines",
				"well-composed building photograph with strong geometry",
			},
			CategoryNature: {
				"captivating nature photography with vibrant details",
				"beautiful natural scene with excellent clarity",
			},
			CategorySunset: {
				"breathtaking sunset photograph with stunning colors",
				"beautiful golden hour scene with dramatic sky",
			},
			CategoryNight: {
				"impressive night photography with excellent exposure",
				"stunning low-light photograph with great atmosphere",
			},
			CategoryOther: {
				"an interesting and well-executed photograph",
				"compelling photography with strong visual appeal",
			},
		},
		// Contrastive prompts, used only to penalize.
		Negative: []string{
			"a poorly composed photograph with bad framing",
			"a blurry low-quality image with poor exposure",
		},
	}
}

// CategoryPrompts returns the prompt group for a category, falling back to
// the "other" group for categories absent from the bank.
func (b *PromptBank) CategoryPrompts(c Category) []string {
	if prompts, ok := b.Category[c]; ok {
		return prompts
	}
	return b.Category[CategoryOther]
}
