package catalog

// sampleWorks returns the starter gallery shown before an admin has
// added anything of their own.
func sampleWorks() []Work {
	return []Work{
		{
			ID:          1,
			Title:       "Architecture Moderne",
			Category:    CategoryPhotography,
			Image:       "https://picsum.photos/seed/arch1/400/300.jpg",
			Description: "Une exploration des lignes architecturales contemporaines.",
		},
		{
			ID:          2,
			Title:       "Portrait Artistique",
			Category:    CategoryPhotography,
			Image:       "https://picsum.photos/seed/portrait1/400/300.jpg",
			Description: "Étude de lumière et d'ombre dans le portrait.",
		},
		{
			ID:          3,
			Title:       "Nature Abstraite",
			Category:    CategoryIllustration,
			Image:       "https://picsum.photos/seed/nature1/400/300.jpg",
			Description: "Interprétation artistique des formes naturelles.",
		},
		{
			ID:          4,
			Title:       "Design Minimaliste",
			Category:    CategoryDesign,
			Image:       "https://picsum.photos/seed/design1/400/300.jpg",
			Description: "L'élégance de la simplicité dans le design.",
		},
		{
			ID:          5,
			Title:       "Urbain Poétique",
			Category:    CategoryPhotography,
			Image:       "https://picsum.photos/seed/urban1/400/300.jpg",
			Description: "La poésie cachée dans les paysages urbains.",
		},
		{
			ID:          6,
			Title:       "Illustration Conceptuelle",
			Category:    CategoryIllustration,
			Image:       "https://picsum.photos/seed/concept1/400/300.jpg",
			Description: "Exploration visuelle de concepts abstraits.",
		},
	}
}
