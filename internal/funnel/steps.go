package funnel

// DefaultSteps is the funnel's fixed step list. Every page variant
// renders from this one contract; the order is set at build time and
// the cursor never skips or reorders steps.
func DefaultSteps() []Step {
	return []Step{
		{
			Name:          "landing",
			Kind:          KindLanding,
			ContinueLabel: "Começar o teste",
		},
		{
			Name: "goal",
			Kind: KindChoice,
			Options: []Option{
				{Value: "focus", Label: "Melhorar meu foco"},
				{Value: "anxiety", Label: "Reduzir a ansiedade"},
				{Value: "sleep", Label: "Dormir melhor"},
				{Value: "memory", Label: "Fortalecer a memória"},
			},
		},
		{
			Name: "frequency",
			Kind: KindChoice,
			Options: []Option{
				{Value: "daily", Label: "Todos os dias"},
				{Value: "weekly", Label: "Algumas vezes por semana"},
				{Value: "rarely", Label: "Raramente"},
			},
		},
		{
			Name: "age_range",
			Kind: KindChoice,
			Options: []Option{
				{Value: "18-29", Label: "18 a 29 anos"},
				{Value: "30-44", Label: "30 a 44 anos"},
				{Value: "45-59", Label: "45 a 59 anos"},
				{Value: "60+", Label: "60 anos ou mais"},
			},
		},
		{
			Name: "science",
			Kind: KindInformational,
			TextBlocks: []string{
				"Seu cérebro forma novas conexões a cada estímulo certo.",
				"Protocolos de poucos minutos por dia já mostram efeito em semanas.",
			},
			ContinueLabel: "Continuar",
		},
		{
			Name: "routine",
			Kind: KindChoice,
			Options: []Option{
				{Value: "morning", Label: "De manhã"},
				{Value: "afternoon", Label: "À tarde"},
				{Value: "night", Label: "À noite"},
			},
		},
		{
			Name:          "testimonials",
			Kind:          KindTestimonials,
			ContinueLabel: "Ver meu resultado",
		},
	}
}
