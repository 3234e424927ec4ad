package collector

import "math/rand"

// Campaign categories. The first three are keyword driven; known_users is
// fed by profile URLs from the configuration.
const (
	CategoryMedicalBeauty = "medical_beauty"
	CategoryMaleHealth    = "male_health"
	CategoryGeneralRights = "general_rights"
	CategoryKnownUsers    = "known_users"
)

// MedicalBeautyKeywords covers cosmetic-procedure complaints and refund
// disputes.
var MedicalBeautyKeywords = []string{
	"医美维权",
	"整形失败",
	"医美退款",
	"医美投诉",
	"整容后悔",
	"医美纠纷",
	"注射失败",
	"整形退款",
	"医美诈骗",
	"双眼皮失败",
	"隆鼻失败",
	"注射事故",
	"医美后遗症",
	"医美协商",
	"整形医院投诉",
	"医美索赔",
}

// MaleHealthKeywords covers men's-clinic and supplement scam complaints.
var MaleHealthKeywords = []string{
	"男科维权",
	"男科骗局",
	"男科退款",
	"保健品骗局",
	"男科医院投诉",
	"保健品退款",
	"男科产品退款",
	"男科虚假宣传",
	"男科欺诈",
	"前列腺骗局",
	"男性保健投诉",
	"男科药物退款",
	"男科治疗失败",
	"壮阳产品投诉",
	"男科产品投诉",
	"男科诈骗",
}

// GeneralRightsKeywords covers generic consumer-rights topics.
var GeneralRightsKeywords = []string{
	"消费维权",
	"退款维权",
	"商家欺骗",
	"消费陷阱",
	"消协投诉",
	"如何退款",
	"退款技巧",
	"消费者权益",
	"315投诉",
	"消费骗局",
	"行政投诉",
	"维权经验",
	"投诉有效",
	"索赔成功",
	"退款成功",
	"维权攻略",
}

// KeywordCategories returns the keyword-driven categories in their fixed
// collection order.
func KeywordCategories() []string {
	return []string{CategoryMedicalBeauty, CategoryMaleHealth, CategoryGeneralRights}
}

// BuiltinKeywords returns the curated keyword set for a category, or nil for
// categories without one.
func BuiltinKeywords(category string) []string {
	switch category {
	case CategoryMedicalBeauty:
		return MedicalBeautyKeywords
	case CategoryMaleHealth:
		return MaleHealthKeywords
	case CategoryGeneralRights:
		return GeneralRightsKeywords
	default:
		return nil
	}
}

// SampleKeywords picks n keywords at random without replacement. When n
// meets or exceeds the set size the whole set is returned in a shuffled
// copy; the input slice is never modified.
func SampleKeywords(keywords []string, n int, rng *rand.Rand) []string {
	if n <= 0 || len(keywords) == 0 {
		return nil
	}

	shuffled := make([]string, len(keywords))
	copy(shuffled, keywords)
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	if n > len(shuffled) {
		n = len(shuffled)
	}
	return shuffled[:n]
}
