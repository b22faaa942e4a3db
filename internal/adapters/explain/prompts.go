package explain

import "github.com/okian/reco/internal/domain/model"

const (
	recommendationSystem = "You are an AI that explains product recommendations based on user preferences and sales data."
	descriptionSystem    = "You are an AI that enhances product descriptions based on sales trends and customer interest."
	oneLineInstruction   = " Keep it short to 1 line and no formating or text styles."
)

// RecommendationPrompt asks why rec suits someone looking at target.
func RecommendationPrompt(target, rec model.Item) Prompt {
	return Prompt{
		Kind:   KindRecommendation,
		System: recommendationSystem,
		User: "Recommend " + rec.Name + " to someone interested in " + target.Name +
			", considering its recent sales trends." + oneLineInstruction,
	}
}

// DescriptionPrompt asks for a rewrite of an enriched product description.
func DescriptionPrompt(enriched string) Prompt {
	return Prompt{
		Kind:   KindDescription,
		System: descriptionSystem,
		User:   "Rewrite this product description: " + enriched + ". Highlight why it's a popular choice.",
	}
}

// ListingPrompt is DescriptionPrompt limited to one plain line.
func ListingPrompt(enriched string) Prompt {
	p := DescriptionPrompt(enriched)
	p.Kind = KindListing
	p.User += oneLineInstruction
	return p
}
