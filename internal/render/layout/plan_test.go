package layout

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zlovtnik/gletter/internal/render/geometry"
)

func fptr(v float64) *float64 { return &v }

func TestPlanTemplateStyles(t *testing.T) {
	tests := []struct {
		id     TemplateID
		font   string
		accent string
	}{
		{Classic, "Times New Roman", "#000000"},
		{ModernGreen, "Arial", "#2E7D32"},
		{CorporateBlue, "Arial", "#1565C0"},
		{ElegantGray, "Times New Roman", "#2C2C2C"},
	}

	for _, tt := range tests {
		t.Run(string(tt.id), func(t *testing.T) {
			plan, err := Planner{}.Plan(tt.id, geometry.PaperUSLetter, nil, nil, false)
			require.NoError(t, err)
			assert.Equal(t, tt.id, plan.Template)
			assert.Equal(t, tt.font, plan.Type.CompanyName.Family)
			assert.Equal(t, tt.font, plan.Type.Body.Family)
			assert.Equal(t, tt.accent, plan.Style.Accent)
			assert.Equal(t, tt.accent, plan.Type.Fallback.Color)
			assert.Empty(t, plan.Substitutions)
		})
	}
}

func TestPlanClassicGeometry(t *testing.T) {
	plan, err := Planner{}.Plan(Classic, geometry.PaperUSLetter, nil, nil, true)
	require.NoError(t, err)

	assert.Equal(t, geometry.Inches(1.5), plan.Margins.Left)
	assert.Equal(t, geometry.Inches(1.5), plan.Margins.Top)
	assert.Equal(t, geometry.Inches(2), plan.LogoWidth)
	assert.Equal(t, geometry.Inches(1.25), plan.HeaderHeight)
	assert.Equal(t, geometry.Inches(5.5), plan.ContentWidth)
	assert.Equal(t, geometry.Inches(3.5), plan.ContactWidth)
	assert.Equal(t, 30, plan.Separator.Width.Twips())
	assert.Equal(t, "#000000", plan.Separator.Color)
	assert.True(t, plan.HasLogo)
}

func TestPlanBetaHeaderScalesWithPaperHeight(t *testing.T) {
	for _, id := range []TemplateID{ModernGreen, CorporateBlue, ElegantGray} {
		t.Run(string(id), func(t *testing.T) {
			letter, err := Planner{}.Plan(id, geometry.PaperUSLetter, nil, nil, false)
			require.NoError(t, err)
			legal, err := Planner{}.Plan(id, geometry.PaperLegal, nil, nil, false)
			require.NoError(t, err)

			assert.InDelta(t, 11.0/5, letter.HeaderHeight.Inches(), 1e-9)
			assert.InDelta(t, 14.0/5, legal.HeaderHeight.Inches(), 1e-9)
			assert.Equal(t, geometry.Inches(0.5), letter.Margins.Left)
			assert.Equal(t, geometry.Inches(0.5), letter.Margins.Right)
			assert.Equal(t, geometry.Inches(0.3), letter.Margins.Top)
			assert.Equal(t, geometry.Inches(7.5), letter.ContentWidth)
			assert.Greater(t, legal.Type.Fallback.Size, letter.Type.Fallback.Size)
		})
	}
}

func TestPlanCustomPaper(t *testing.T) {
	plan, err := Planner{}.Plan(ModernGreen, geometry.PaperCustom, fptr(7), fptr(9), false)
	require.NoError(t, err)

	assert.Equal(t, geometry.PaperCustom, plan.Paper)
	assert.Equal(t, 7*1440, plan.PaperWidth.Twips())
	assert.Equal(t, 9*1440, plan.PaperHeight.Twips())
	assert.InDelta(t, 9.0/5, plan.HeaderHeight.Inches(), 1e-9)
}

func TestPlanHeaderParityAcrossEncoders(t *testing.T) {
	for _, tpl := range Templates() {
		for _, paper := range []geometry.PaperSize{geometry.PaperUSLetter, geometry.PaperA4, geometry.PaperLegal} {
			wordPlan, err := Planner{}.Plan(tpl.ID, paper, nil, nil, true)
			require.NoError(t, err)
			pdfPlan, err := Planner{}.Plan(tpl.ID, paper, nil, nil, true)
			require.NoError(t, err)

			assert.Equal(t, wordPlan.HeaderHeight, pdfPlan.HeaderHeight)
			assert.InDelta(t, float64(wordPlan.HeaderHeight.Twips())/20, pdfPlan.HeaderHeight.Points(), 0.05)
		}
	}
}

func TestPlanPermissiveFallback(t *testing.T) {
	plan, err := Planner{Policy: DefaultPolicy()}.Plan("retro", "tabloid", nil, nil, false)
	require.NoError(t, err)

	assert.Equal(t, Classic, plan.Template)
	assert.Equal(t, geometry.PaperUSLetter, plan.Paper)
	assert.Equal(t, 12240, plan.PaperWidth.Twips())
	assert.Len(t, plan.Substitutions, 2)
}

func TestPlanPolicyFallbackTargets(t *testing.T) {
	policy := FallbackPolicy{PaperFallback: geometry.PaperA4, TemplateFallback: CorporateBlue}
	plan, err := Planner{Policy: policy}.Plan("nope", geometry.PaperCustom, fptr(50), fptr(9), false)
	require.NoError(t, err)

	assert.Equal(t, CorporateBlue, plan.Template)
	assert.Equal(t, geometry.PaperA4, plan.Paper)
	assert.Equal(t, 11906, plan.PaperWidth.Twips())
}

func TestPlanStrictPolicy(t *testing.T) {
	strict := Planner{Policy: FallbackPolicy{Strict: true}}

	_, err := strict.Plan("retro", geometry.PaperUSLetter, nil, nil, false)
	assert.True(t, errors.Is(err, ErrUnknownTemplate))

	_, err = strict.Plan(Classic, "tabloid", nil, nil, false)
	assert.True(t, errors.Is(err, ErrUnknownPaperSize))

	_, err = strict.Plan(Classic, geometry.PaperCustom, fptr(7), nil, false)
	assert.True(t, errors.Is(err, ErrUnknownPaperSize))
}

func TestFallbackText(t *testing.T) {
	gray, err := Planner{}.Plan(ElegantGray, geometry.PaperA4, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "A", gray.FallbackText("acme Ltd"))
	assert.Equal(t, "É", gray.FallbackText(" école"))
	assert.Equal(t, "", gray.FallbackText(""))

	classic, err := Planner{}.Plan(Classic, geometry.PaperA4, nil, nil, false)
	require.NoError(t, err)
	assert.Equal(t, "Acme Ltd", classic.FallbackText(" Acme Ltd "))
}

func TestImageErrorPolicy(t *testing.T) {
	boom := errors.New("corrupt png")

	assert.NoError(t, DefaultPolicy().ImageError(boom))
	err := FallbackPolicy{Images: ImageFallbackFail}.ImageError(boom)
	assert.True(t, errors.Is(err, ErrImageUnavailable))
	assert.NoError(t, FallbackPolicy{Images: ImageFallbackFail}.ImageError(nil))
}

func TestTemplateIDHelpers(t *testing.T) {
	assert.Equal(t, ModernGreen, ParseTemplateID(" Modern-Green "))
	assert.Equal(t, "corporate-blue", CorporateBlue.Slug())
	assert.False(t, TemplateID("retro").Known())
	assert.Len(t, Templates(), 4)
}

func TestPlanTinyCustomPaperStaysPositive(t *testing.T) {
	for _, id := range []TemplateID{Classic, ModernGreen, CorporateBlue, ElegantGray} {
		for _, side := range []float64{1, 2} {
			t.Run(fmt.Sprintf("%s/%gin", id, side), func(t *testing.T) {
				plan, err := Planner{}.Plan(id, geometry.PaperCustom, fptr(side), fptr(side), false)
				require.NoError(t, err)

				paper := geometry.Inches(side)
				m := plan.Margins
				assert.LessOrEqual(t, float64(m.Left+m.Right), float64(paper)/2+1e-9)
				assert.LessOrEqual(t, float64(m.Top+m.Bottom), float64(paper)/2+1e-9)
				assert.Greater(t, plan.ContentWidth, geometry.Length(0))
				assert.Greater(t, plan.ContentHeight(), geometry.Length(0))
				assert.Greater(t, plan.LogoWidth, geometry.Length(0))
				assert.GreaterOrEqual(t, plan.ContactWidth, geometry.Length(0))
				assert.InDelta(t, plan.ContentWidth.Inches(), (plan.LogoWidth + plan.ContactWidth).Inches(), 1e-9)
				assert.LessOrEqual(t, float64(plan.HeaderHeight), float64(plan.ContentHeight())/4+1e-9)
				assert.Less(t, plan.TextScale, 1.0)
				assert.GreaterOrEqual(t, plan.Type.Body.Size, 1.0)
				assert.Less(t, plan.Space(12), 12.0)
			})
		}
	}
}

func TestPlanStandardPaperUnscaled(t *testing.T) {
	for _, paper := range []geometry.PaperSize{geometry.PaperUSLetter, geometry.PaperA4, geometry.PaperLegal} {
		plan, err := Planner{}.Plan(ModernGreen, paper, nil, nil, false)
		require.NoError(t, err)
		assert.Equal(t, 1.0, plan.TextScale)
		assert.Equal(t, 11.0, plan.Type.Body.Size)
		assert.Equal(t, 12.0, plan.Space(12))
	}
}
