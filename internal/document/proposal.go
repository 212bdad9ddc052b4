package document

const (
	seedWorkPlanBlocks = 6
	PricingSlots       = 3
)

type Hero struct {
	Title        string `json:"title"`
	Subtitle     string `json:"subtitle"`
	Introduction string `json:"introduction"`
}

type Bullet struct {
	Text           string `json:"text"`
	HighlightColor string `json:"highlightColor,omitempty"`
}

// WorkPlanBlock is one numbered block of the proposal work plan. Number is
// derived from the block's position and never read back from input.
type WorkPlanBlock struct {
	Number   int      `json:"number"`
	Heading  string   `json:"heading"`
	LeadText string   `json:"leadText"`
	Bullets  []Bullet `json:"bullets"`
}

type PricingPackage struct {
	Name   string   `json:"name"`
	Price  string   `json:"price"`
	Points []string `json:"points"`
}

type Proposal struct {
	Hero       Hero             `json:"hero"`
	VisionHTML string           `json:"visionHtml"`
	Goals      []string         `json:"goals"`
	Noticed    []string         `json:"noticed"`
	WorkPlan   []WorkPlanBlock  `json:"workPlan"`
	Pricing    []PricingPackage `json:"pricing"`
	NotesHTML  string           `json:"notesHtml"`
}

func (Proposal) Kind() Kind { return KindProposal }

// Available reports whether the hero title is filled in.
func (p Proposal) Available() bool {
	return !blank(p.Hero.Title)
}

func emptyWorkPlanBlock(number int) WorkPlanBlock {
	return WorkPlanBlock{
		Number:  number,
		Bullets: []Bullet{{}},
	}
}

func emptyPricingPackage() PricingPackage {
	return PricingPackage{Points: []string{""}}
}

// EmptyProposal is the seed for new proposals and the fallback for
// unreadable input.
func EmptyProposal() Proposal {
	workPlan := make([]WorkPlanBlock, seedWorkPlanBlocks)
	for i := range workPlan {
		workPlan[i] = emptyWorkPlanBlock(i + 1)
	}
	pricing := make([]PricingPackage, PricingSlots)
	for i := range pricing {
		pricing[i] = emptyPricingPackage()
	}
	return Proposal{
		Goals:    []string{""},
		Noticed:  []string{""},
		WorkPlan: workPlan,
		Pricing:  pricing,
	}
}

// NormalizeProposal builds a Proposal from untrusted input.
func NormalizeProposal(input any) Proposal {
	base := EmptyProposal()
	data, ok := decodeObject(input)
	if !ok {
		return base
	}

	hero := data.child("hero")
	out := Proposal{
		Hero: Hero{
			Title:        hero.str("title"),
			Subtitle:     hero.str("subtitle"),
			Introduction: hero.str("introduction"),
		},
		VisionHTML: data.str("visionHtml"),
		Goals:      base.Goals,
		Noticed:    stringArray(data.get("noticed")),
		WorkPlan:   base.WorkPlan,
		NotesHTML:  data.str("notesHtml"),
	}
	if data.has("goals") {
		out.Goals = stringArray(data.get("goals"))
	}
	if data.has("workPlan") {
		out.WorkPlan = normalizeWorkPlan(data.get("workPlan"))
	}
	out.Pricing = normalizePricing(data.get("pricing"))
	return out
}

func normalizeWorkPlan(value any) []WorkPlanBlock {
	items, _ := asArray(value)
	blocks := make([]WorkPlanBlock, 0, len(items))
	for i, item := range items {
		block := asObject(item)
		blocks = append(blocks, WorkPlanBlock{
			Number:   i + 1,
			Heading:  block.str("heading"),
			LeadText: block.str("leadText"),
			Bullets:  normalizeBullets(block.get("bullets")),
		})
	}
	return blocks
}

func normalizeBullets(value any) []Bullet {
	items, _ := asArray(value)
	bullets := make([]Bullet, 0, len(items))
	for _, item := range items {
		bullet := asObject(item)
		bullets = append(bullets, Bullet{
			Text:           bullet.str("text"),
			HighlightColor: bullet.str("highlightColor"),
		})
	}
	return bullets
}

func normalizePricing(value any) []PricingPackage {
	items, _ := asArray(value)
	pricing := make([]PricingPackage, PricingSlots)
	for i := range pricing {
		var incoming object
		if i < len(items) {
			incoming = asObject(items[i])
		}
		pkg := PricingPackage{
			Name:   incoming.str("name"),
			Price:  incoming.str("price"),
			Points: []string{""},
		}
		if incoming.has("points") {
			pkg.Points = stringArray(incoming.get("points"))
		}
		pricing[i] = pkg
	}
	return pricing
}

// renumber returns a copy of blocks with Number set from position.
func renumber(blocks []WorkPlanBlock) []WorkPlanBlock {
	out := make([]WorkPlanBlock, len(blocks))
	for i, block := range blocks {
		block.Number = i + 1
		out[i] = block
	}
	return out
}

// MoveWorkPlanBlock returns a copy of p with the block at from moved to
// index to. Out-of-range indexes leave the work plan unchanged.
func (p Proposal) MoveWorkPlanBlock(from, to int) Proposal {
	n := len(p.WorkPlan)
	if from < 0 || from >= n || to < 0 || to >= n || from == to {
		p.WorkPlan = renumber(p.WorkPlan)
		return p
	}
	blocks := make([]WorkPlanBlock, 0, n)
	moved := p.WorkPlan[from]
	for i, block := range p.WorkPlan {
		if i != from {
			blocks = append(blocks, block)
		}
	}
	blocks = append(blocks[:to], append([]WorkPlanBlock{moved}, blocks[to:]...)...)
	p.WorkPlan = renumber(blocks)
	return p
}

// RemoveWorkPlanBlock returns a copy of p without the block at index.
func (p Proposal) RemoveWorkPlanBlock(index int) Proposal {
	if index < 0 || index >= len(p.WorkPlan) {
		p.WorkPlan = renumber(p.WorkPlan)
		return p
	}
	blocks := make([]WorkPlanBlock, 0, len(p.WorkPlan)-1)
	blocks = append(blocks, p.WorkPlan[:index]...)
	blocks = append(blocks, p.WorkPlan[index+1:]...)
	p.WorkPlan = renumber(blocks)
	return p
}

// AppendWorkPlanBlock returns a copy of p with a blank block at the end.
func (p Proposal) AppendWorkPlanBlock() Proposal {
	blocks := make([]WorkPlanBlock, 0, len(p.WorkPlan)+1)
	blocks = append(blocks, p.WorkPlan...)
	blocks = append(blocks, emptyWorkPlanBlock(0))
	p.WorkPlan = renumber(blocks)
	return p
}
