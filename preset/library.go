package preset

// Library returns the built-in catalog.
func Library() Catalog {
	return Catalog{
		{
			ID:          "football",
			Name:        "Football",
			Icon:        "soccerball",
			Description: "Two halves, standard match scoring.",
			RoundCount:  2,
			RoundLabel:  "Half",
			Options: []ScoreOption{
				{Label: "Goal", Delta: 1, Icon: "sportscourt", Color: "green"},
				{Label: "Penalty", Delta: 1, Icon: "bolt.circle", Color: "blue"},
				{Label: "Undo", Delta: -1, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			MaxPlayers:         2,
			DefaultPlayerNames: []string{"Home", "Away"},
			Notes:              "Track total goals across two halves. Use undo to revert mistakes; scores never drop below zero.",
			ScoreFloor:         0,
			ScoringHint:        "Each button updates the current half's tally.",
		},
		{
			ID:          "basketball",
			Name:        "Basketball",
			Icon:        "basketball",
			Description: "Four quarters with standard point values.",
			RoundCount:  4,
			RoundLabel:  "Quarter",
			Options: []ScoreOption{
				{Label: "+1", Delta: 1, Icon: "1.circle", Color: "purple"},
				{Label: "+2", Delta: 2, Icon: "2.circle", Color: "blue"},
				{Label: "+3", Delta: 3, Icon: "3.circle", Color: "green"},
				{Label: "Undo", Delta: -1, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			MaxPlayers:         2,
			DefaultPlayerNames: []string{"Home", "Away"},
			Notes:              "Four quarters mirror regulation play. Quarter totals sum to the game score.",
			ScoreFloor:         0,
			ScoringHint:        "Use +1 for free throws, +2 for field goals, +3 for long-range shots.",
		},
		{
			ID:          "table-tennis",
			Name:        "Table Tennis",
			Icon:        "figure.table.tennis",
			Description: "Best of five games to eleven points.",
			RoundCount:  5,
			RoundLabel:  "Game",
			Options: []ScoreOption{
				{Label: "Point", Delta: 1, Icon: "figure.table.tennis", Color: "green"},
				{Label: "Undo", Delta: -1, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			MaxPlayers:         2,
			DefaultPlayerNames: []string{"Player A", "Player B"},
			Notes:              "Track up to five games. A game is typically won at 11 points with a two-point margin.",
			ScoreFloor:         0,
			TargetPerRound:     11,
			ScoringHint:        "Mark each rally won. Stop scoring once a player reaches 11 with a two-point lead.",
		},
		{
			ID:          "chess",
			Name:        "Chess",
			Icon:        "checkerboard.rectangle",
			Description: "Single game with classic result scoring.",
			RoundCount:  1,
			RoundLabel:  "Game",
			Options: []ScoreOption{
				{Label: "Win", Delta: 1, Icon: "crown", Color: "green"},
				{Label: "Draw", Delta: 0.5, Icon: "scalemass", Color: "blue"},
				{Label: "Undo", Delta: -0.5, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			DefaultPlayerNames: []string{"White", "Black", "Challenger 1", "Challenger 2"},
			Notes:              "Track head-to-head games or round-robin results across multiple players.",
			ScoreFloor:         0,
			ScoringHint:        "Record wins as 1.0, draws as 0.5, and losses as 0.",
		},
		{
			ID:          "volleyball",
			Name:        "Volleyball",
			Icon:        "volleyball",
			Description: "Five sets to twenty-five points.",
			RoundCount:  5,
			RoundLabel:  "Set",
			Options: []ScoreOption{
				{Label: "+1", Delta: 1, Icon: "plus", Color: "green"},
				{Label: "Undo", Delta: -1, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			MaxPlayers:         2,
			DefaultPlayerNames: []string{"Team A", "Team B"},
			Notes:              "Race to 25 points per set with a two-point lead. Track up to five sets.",
			ScoreFloor:         0,
			TargetPerRound:     25,
			ScoringHint:        "Log points rally-by-rally. A team must lead by two to close a set.",
		},
		{
			ID:          "hockey",
			Name:        "Hockey",
			Icon:        "hockey.puck",
			Description: "Three periods with goal-based scoring.",
			RoundCount:  3,
			RoundLabel:  "Period",
			Options: []ScoreOption{
				{Label: "Goal", Delta: 1, Icon: "sportscourt", Color: "green"},
				{Label: "Empty Net", Delta: 1, Icon: "target", Color: "blue"},
				{Label: "Undo", Delta: -1, Icon: "arrow.uturn.backward", Color: "orange"},
			},
			MinPlayers:         2,
			MaxPlayers:         2,
			DefaultPlayerNames: []string{"Home", "Away"},
			Notes:              "Standard three-period structure. Use scoring buttons for each goal event.",
			ScoreFloor:         0,
			ScoringHint:        "Undo reverses the last goal if added by mistake.",
		},
	}
}

// Placeholder is the generic preset used when no catalog is available.
func Placeholder() Preset {
	return Preset{
		ID:          "generic",
		Name:        "Generic",
		Icon:        "sportscourt",
		Description: "Configure players and keep score.",
		RoundCount:  1,
		RoundLabel:  "Round",
		Options: []ScoreOption{
			{Label: "+1", Delta: 1, Icon: "plus", Color: "accent"},
		},
		MinPlayers:         2,
		DefaultPlayerNames: []string{"Player 1", "Player 2"},
		Notes:              "Generic preset placeholder.",
		ScoreFloor:         0,
	}
}
