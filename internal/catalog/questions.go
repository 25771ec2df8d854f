package catalog

var agreement = &ScaleLabels{Low: "Not at all", High: "Completely"}
var frequency = &ScaleLabels{Low: "Never", High: "Constantly"}

// defaultCatalog is built once at package init and must not be mutated.
var defaultCatalog = New([]Section{
	{
		ID:          "control",
		Title:       "Control",
		Description: "How well you can see and steer what is happening in the business.",
		Dimension:   DimensionControl,
		Questions: []Question{
			{
				ID: "control-1", Dimension: DimensionControl, Type: TypeScale,
				Prompt:      "How confident are you that you know the business's true financial position at any given moment?",
				ScaleLabels: agreement,
			},
			{
				ID: "control-2", Dimension: DimensionControl, Type: TypeScale,
				Prompt:      "How often do you learn about a problem only after it has reached a customer?",
				ScaleLabels: frequency,
				Invert:      true,
			},
			{
				ID: "control-3", Dimension: DimensionControl, Type: TypeSelect,
				Prompt: "How long does it take to get an accurate picture of last month's performance?",
				Options: []Option{
					{Text: "Less than 1 week", Score: 5},
					{Text: "1-2 weeks", Score: 4},
					{Text: "2-4 weeks", Score: 3},
					{Text: "More than a month", Score: 1},
					{Text: "I don't know", Score: 2},
				},
			},
			{
				ID: "control-4", Dimension: DimensionControl, Type: TypeScale,
				Prompt:      "How often do projects stall waiting on a decision from you personally?",
				ScaleLabels: frequency,
				Invert:      true,
			},
			{
				ID: "control-5", Dimension: DimensionControl, Type: TypeText,
				Prompt: "What is the one number you wish you could see every morning?",
			},
		},
	},
	{
		ID:          "clarity",
		Title:       "Clarity",
		Description: "How well knowledge, roles and data are written down and shared.",
		Dimension:   DimensionClarity,
		Questions: []Question{
			{
				ID: "clarity-1", Dimension: DimensionClarity, Type: TypeScale,
				Prompt:      "How clearly documented are your core processes?",
				ScaleLabels: agreement,
			},
			{
				ID: "clarity-2", Dimension: DimensionClarity, Type: TypeSelect,
				Prompt: "If a key employee left tomorrow, how much of their knowledge would leave with them?",
				Options: []Option{
					{Text: "Almost none, it is all documented", Score: 5},
					{Text: "A little", Score: 4},
					{Text: "A fair amount", Score: 3},
					{Text: "Most of it", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "clarity-3", Dimension: DimensionClarity, Type: TypeScale,
				Prompt:      "How often does the team ask the same questions over and over?",
				ScaleLabels: frequency,
				Invert:      true,
			},
			{
				ID: "clarity-4", Dimension: DimensionClarity, Type: TypeSelect,
				Prompt: "How are roles and responsibilities defined?",
				Options: []Option{
					{Text: "Written down and reviewed regularly", Score: 5},
					{Text: "Written down but rarely updated", Score: 4},
					{Text: "Understood informally", Score: 3},
					{Text: "Everyone does a bit of everything", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "clarity-5", Dimension: DimensionClarity, Type: TypeMultiselect,
				Prompt: "Where does your business data live today? Select all that apply.",
				Options: []Option{
					{Text: "One centralized system"},
					{Text: "CRM system"},
					{Text: "ERP system"},
					{Text: "Spreadsheets"},
					{Text: "Email threads"},
					{Text: "Paper records"},
					{Text: "In people's heads"},
					{Text: "Multiple disconnected tools"},
				},
				Signals: []Signal{
					{Any: []string{"One centralized system"}, Delta: 2},
					{Any: []string{"CRM system", "ERP system"}, Delta: 1},
					{Any: []string{"Spreadsheets"}, Delta: -0.5},
					{Any: []string{"Email threads"}, Delta: -1},
					{Any: []string{"Paper records"}, Delta: -1},
					{Any: []string{"In people's heads"}, Delta: -1},
					{Any: []string{"Multiple disconnected tools"}, Delta: -1},
				},
			},
		},
	},
	{
		ID:          "leverage",
		Title:       "Leverage",
		Description: "How much output your systems produce for each hour of effort.",
		Dimension:   DimensionLeverage,
		Questions: []Question{
			{
				ID: "leverage-1", Dimension: DimensionLeverage, Type: TypeScale,
				Prompt:      "How much of the team's week goes to repetitive manual work?",
				ScaleLabels: &ScaleLabels{Low: "Almost none", High: "Most of it"},
				Invert:      true,
			},
			{
				ID: "leverage-2", Dimension: DimensionLeverage, Type: TypeSelect,
				Prompt: "How many of your core tools are connected to each other?",
				Options: []Option{
					{Text: "All of them", Score: 5},
					{Text: "Most of them", Score: 4},
					{Text: "Some of them", Score: 3},
					{Text: "None of them", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "leverage-3", Dimension: DimensionLeverage, Type: TypeScale,
				Prompt:      "If sales doubled next month, how well would your current systems cope?",
				ScaleLabels: &ScaleLabels{Low: "They would break", High: "No problem"},
			},
			{
				ID: "leverage-4", Dimension: DimensionLeverage, Type: TypeSelect,
				Prompt: "How much of revenue depends on the owner being directly involved?",
				Options: []Option{
					{Text: "Less than 10%", Score: 5},
					{Text: "10-25%", Score: 4},
					{Text: "25-50%", Score: 3},
					{Text: "More than 50%", Score: 1},
					{Text: "I don't know", Score: 2},
				},
			},
		},
	},
	{
		ID:          "friction",
		Title:       "Friction",
		Description: "Where work slows down between people, teams and tools.",
		Dimension:   DimensionFriction,
		Questions: []Question{
			{
				ID: "friction-1", Dimension: DimensionFriction, Type: TypeScale,
				Prompt:      "How often do handoffs between people or teams cause delays or errors?",
				ScaleLabels: frequency,
				Invert:      true,
			},
			{
				ID: "friction-2", Dimension: DimensionFriction, Type: TypeSelect,
				Prompt: "How long does it take to fully onboard a new customer?",
				Options: []Option{
					{Text: "Same day", Score: 5},
					{Text: "Within a week", Score: 4},
					{Text: "1-4 weeks", Score: 3},
					{Text: "More than a month", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "friction-3", Dimension: DimensionFriction, Type: TypeScale,
				Prompt:      "How smooth is the approval path for routine decisions?",
				ScaleLabels: &ScaleLabels{Low: "Painful", High: "Effortless"},
			},
			{
				ID: "friction-4", Dimension: DimensionFriction, Type: TypeMultiselect,
				Prompt: "Which of these slow the team down most? Select all that apply.",
				Options: []Option{
					{Text: "Waiting for approvals"},
					{Text: "Re-entering the same data"},
					{Text: "Searching for information"},
					{Text: "Unclear ownership"},
					{Text: "Too many meetings"},
				},
			},
		},
	},
	{
		ID:          "change-readiness",
		Title:       "Change Readiness",
		Description: "How able the organisation is to adopt new ways of working.",
		Dimension:   DimensionChangeReadiness,
		Questions: []Question{
			{
				ID: "change-1", Dimension: DimensionChangeReadiness, Type: TypeScale,
				Prompt:      "How willing is the team to adopt new tools and processes?",
				ScaleLabels: &ScaleLabels{Low: "Resistant", High: "Eager"},
			},
			{
				ID: "change-2", Dimension: DimensionChangeReadiness, Type: TypeSelect,
				Prompt: "When did you last successfully roll out a new system?",
				Options: []Option{
					{Text: "Within the last 6 months", Score: 5},
					{Text: "6-12 months ago", Score: 4},
					{Text: "1-2 years ago", Score: 3},
					{Text: "More than 2 years ago", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "change-3", Dimension: DimensionChangeReadiness, Type: TypeScale,
				Prompt:      "How often are improvement initiatives abandoned before they finish?",
				ScaleLabels: frequency,
				Invert:      true,
			},
			{
				ID: "change-4", Dimension: DimensionChangeReadiness, Type: TypeText,
				Prompt: "What has got in the way of change in the past?",
			},
		},
	},
	{
		ID:          "ai-investment",
		Title:       "AI Investment",
		Description: "How prepared you are to put AI and automation to work.",
		Dimension:   DimensionAIInvestment,
		Questions: []Question{
			{
				ID: "ai-invest-1", Dimension: DimensionAIInvestment, Type: TypeSelect,
				Prompt: "How is the business using AI today?",
				Options: []Option{
					{Text: "Built into core workflows", Score: 5},
					{Text: "Used regularly by some staff", Score: 4},
					{Text: "Experimenting", Score: 3},
					{Text: "Not at all", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "ai-invest-2", Dimension: DimensionAIInvestment, Type: TypeScale,
				Prompt:      "How clear is your budget for AI and automation over the next 12 months?",
				ScaleLabels: agreement,
			},
			{
				ID: "ai-invest-3", Dimension: DimensionAIInvestment, Type: TypeSelect,
				Prompt: "Who owns AI and automation decisions?",
				Options: []Option{
					{Text: "A named owner with a mandate", Score: 5},
					{Text: "Leadership, as a standing agenda item", Score: 4},
					{Text: "Whoever is interested", Score: 3},
					{Text: "Nobody", Score: 1},
					{Text: "Not sure", Score: 2},
				},
			},
			{
				ID: "ai-invest-4", Dimension: DimensionAIInvestment, Type: TypeScale,
				Prompt:      "How worried are you that messy data would block an AI project?",
				ScaleLabels: &ScaleLabels{Low: "Not worried", High: "Very worried"},
				Invert:      true,
			},
		},
	},
})

// Default returns the shipped questionnaire.
func Default() *Catalog { return defaultCatalog }
