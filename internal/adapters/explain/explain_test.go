package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/okian/reco/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestPrompts(t *testing.T) {
	Convey("Given two catalog items", t, func() {
		target := model.Item{ID: 1, Name: "Calm Tea"}
		rec := model.Item{ID: 2, Name: "Sleep Drops"}

		Convey("When building a recommendation prompt", func() {
			p := RecommendationPrompt(target, rec)

			Convey("Then it should ask for a one-line reason", func() {
				So(p.Kind, ShouldEqual, KindRecommendation)
				So(p.System, ShouldEqual, "You are an AI that explains product recommendations based on user preferences and sales data.")
				So(p.User, ShouldEqual, "Recommend Sleep Drops to someone interested in Calm Tea, considering its recent sales trends. Keep it short to 1 line and no formating or text styles.")
			})
		})

		Convey("When building description prompts", func() {
			d := DescriptionPrompt("Soothing tea. This product contains: lavender - calming")
			l := ListingPrompt("Soothing tea. This product contains: lavender - calming")

			Convey("Then the detail prompt should ask for a rewrite", func() {
				So(d.Kind, ShouldEqual, KindDescription)
				So(d.System, ShouldEqual, "You are an AI that enhances product descriptions based on sales trends and customer interest.")
				So(d.User, ShouldEqual, "Rewrite this product description: Soothing tea. This product contains: lavender - calming. Highlight why it's a popular choice.")
			})

			Convey("Then the listing prompt should add the one-line instruction", func() {
				So(l.Kind, ShouldEqual, KindListing)
				So(l.System, ShouldEqual, d.System)
				So(l.User, ShouldEqual, d.User+" Keep it short to 1 line and no formating or text styles.")
			})

			Convey("Then their cache keys should differ", func() {
				So(d.Key(), ShouldNotEqual, l.Key())
				So(d.Key(), ShouldEqual, DescriptionPrompt("Soothing tea. This product contains: lavender - calming").Key())
				So(strings.HasPrefix(l.Key(), "listing:"), ShouldBeTrue)
			})
		})
	})
}

func TestDisabled(t *testing.T) {
	Convey("Given a disabled explainer", t, func() {
		_, err := Disabled{}.Explain(context.Background(), Prompt{})

		Convey("Then every call should fail with ErrDisabled", func() {
			So(errors.Is(err, ErrDisabled), ShouldBeTrue)
		})
	})
}
