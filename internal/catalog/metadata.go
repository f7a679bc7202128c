package catalog

import (
	"fmt"
	"time"
	"unicode/utf16"
)

// Metadata is placeholder book detail content derived from the title. The
// same title always yields the same metadata, apart from review dates which
// are relative to the reference time.
type Metadata struct {
	Author          string    `json:"author"`
	PublicationDate time.Time `json:"publication_date"`
	Description     string    `json:"description"`
	AuthorBio       string    `json:"author_bio"`
	Reviews         []Review  `json:"reviews"`
}

// Review is a placeholder customer review.
type Review struct {
	Name   string    `json:"name"`
	Rating int       `json:"rating"`
	Date   time.Time `json:"date"`
	Text   string    `json:"text"`
}

const reviewsPerBook = 3

var reviewerNames = []string{
	"Sarah M.", "John D.", "Emily R.", "Michael T.", "Jessica L.",
	"David K.", "Amanda P.", "Christopher B.", "Rachel W.", "Daniel S.",
	"Lauren H.", "Kevin F.", "Nicole C.", "Robert J.", "Michelle A.",
	"Brian G.", "Stephanie N.", "Andrew M.", "Jennifer Y.", "Thomas V.",
	"Ashley Q.", "Matthew Z.", "Samantha X.", "Joshua I.", "Elizabeth O.",
}

var reviewTemplates = []string{
	`Absolutely loved "%s"! The writing is captivating and the story kept me hooked from start to finish. Highly recommend to anyone looking for a great read.`,
	`"%s" exceeded all my expectations. The author's storytelling ability is remarkable and I found myself thinking about this book days after finishing it.`,
	`I couldn't put "%s" down! One of the best books I've read this year. The characters are so well-developed and the plot is engaging throughout.`,
	`Really enjoyed this one. "%s" is well-written and engaging. Lost one star only because I felt the ending was a bit rushed, but overall a solid read.`,
	`"%s" is a masterpiece. The prose is beautiful and the themes explored are both timely and timeless. Can't recommend this enough!`,
	`A compelling read from start to finish. "%s" tackles complex themes with grace and insight. The author's voice is unique and powerful.`,
	`I picked up "%s" on a whim and was blown away. The narrative is gripping and the character development is exceptional. A must-read!`,
	`"%s" is exactly what I needed. The pacing is perfect and the story resonates on multiple levels. Already looking forward to re-reading it.`,
	`Wonderful book! "%s" has everything - great characters, engaging plot, and beautiful prose. One of those books that stays with you.`,
	`I appreciated the depth and nuance in "%s". While it had some slower moments, the overall experience was rewarding and thought-provoking.`,
	`"%s" is a fantastic addition to the genre. The world-building is immersive and the story is both entertaining and meaningful.`,
	`Loved every page of "%s". The author has a gift for creating vivid imagery and memorable characters. Highly recommended!`,
	`"%s" was a delightful read. The writing style is accessible yet sophisticated, and the story kept me engaged throughout.`,
	`I found "%s" to be both entertaining and enlightening. The themes are handled with care and the narrative is compelling.`,
	`Great book! "%s" delivered on all fronts. The plot is well-constructed and the characters feel authentic and relatable.`,
}

var descriptionTemplates = []string{
	`"%s" is a captivating exploration of human nature and relationships. Through vivid storytelling and complex characters, this book takes readers on an emotional journey that challenges perspectives and touches the heart. The narrative weaves together themes of love, loss, and redemption in ways that feel both fresh and timeless. Perfect for readers who appreciate literary fiction with depth and nuance.`,
	`In this remarkable work, "%s" delivers a powerful story that resonates long after the final page. The author's masterful prose brings to life a world rich in detail and authenticity. Whether you're drawn to character-driven narratives or thought-provoking themes, this book offers something special for every reader. A compelling addition to contemporary literature.`,
	`"%s" stands as a testament to the power of storytelling. With its intricate plot and deeply human characters, this book invites readers into a world that feels both familiar and extraordinary. The author skillfully balances entertainment with insight, creating a reading experience that is as enjoyable as it is meaningful. A must-read for book lovers everywhere.`,
	`Discover the magic within the pages of "%s". This beautifully crafted narrative explores universal themes through a unique and engaging lens. The prose is elegant, the characters unforgettable, and the story itself is a journey worth taking. Whether you're a casual reader or a literary enthusiast, you'll find much to appreciate in this exceptional work.`,
	`"%s" is a triumph of imagination and craft. The author weaves together multiple layers of meaning while never losing sight of the human story at its core. Rich with symbolism and emotional depth, this book rewards careful reading and reflection. An outstanding achievement that deserves a place on every bookshelf.`,
}

var bioTemplates = []string{
	`The author of %s is a celebrated writer known for creating deeply affecting works that explore the human condition with sensitivity and insight. Their writing has garnered critical acclaim and a devoted readership across generations. With a distinctive voice and masterful command of language, they continue to be one of the most important voices in contemporary literature.`,
	`The author of %s has established themselves as a literary force through their compelling narratives and rich character development. Their work spans multiple genres while maintaining a consistent commitment to excellence and authenticity. Critics and readers alike praise their ability to craft stories that are both entertaining and profound.`,
	`An author of remarkable talent, the writer of %s brings a unique perspective to every page. Their books have earned numerous accolades and touched the lives of countless readers around the world. With each new work, they demonstrate why they remain one of the most respected names in literature today.`,
	`The author of %s writes with passion, precision, and deep humanity. Their storytelling prowess has made them a beloved figure in the literary community, and their books continue to find new audiences year after year. Their contribution to literature is both significant and enduring.`,
	`Known for their evocative prose and keen insight into human nature, the author of %s has created a body of work that stands the test of time. Their writing resonates with readers seeking both entertainment and enlightenment, making them a true master of the craft.`,
}

// titleHash is the 31-multiplier string hash over UTF-16 code units, wrapped
// to 32 bits and made non-negative.
func titleHash(title string) int64 {
	var h int32
	for _, unit := range utf16.Encode([]rune(title)) {
		h = (h << 5) - h + int32(unit)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}

// GenerateMetadata builds the placeholder detail content for title. Review
// dates count back from ref.
func GenerateMetadata(title string, ref time.Time) Metadata {
	hash := titleHash(title)

	year := 2000 + int(hash%25)
	month := time.Month(hash%12 + 1)
	day := int(hash%28 + 1)

	meta := Metadata{
		Author:          fmt.Sprintf("%s's Author", title),
		PublicationDate: time.Date(year, month, day, 0, 0, 0, 0, time.UTC),
		Description:     fmt.Sprintf(descriptionTemplates[hash%int64(len(descriptionTemplates))], title),
		AuthorBio:       AuthorBio(title),
		Reviews:         make([]Review, 0, reviewsPerBook),
	}

	used := make(map[int]bool, reviewsPerBook)
	for i := int64(0); i < reviewsPerBook; i++ {
		reviewer := int((hash + i*7919) % int64(len(reviewerNames)))
		for used[reviewer] {
			reviewer = (reviewer + 1) % len(reviewerNames)
		}
		used[reviewer] = true

		template := reviewTemplates[(hash+i*1000)%int64(len(reviewTemplates))]
		daysAgo := int((hash+i*300)%180) + 1

		meta.Reviews = append(meta.Reviews, Review{
			Name:   reviewerNames[reviewer],
			Rating: ratingFor((hash + i*500) % 10),
			Date:   ref.AddDate(0, 0, -daysAgo),
			Text:   fmt.Sprintf(template, title),
		})
	}
	return meta
}

// AuthorBio returns the placeholder author biography for title.
func AuthorBio(title string) string {
	hash := titleHash(title)
	return fmt.Sprintf(bioTemplates[hash%int64(len(bioTemplates))], title)
}

// ratingFor skews ratings toward 4 and 5 stars.
func ratingFor(roll int64) int {
	switch {
	case roll < 6:
		return 5
	case roll < 9:
		return 4
	default:
		return 3
	}
}
