package game

// CategoryItem is one guessable entry: the answer name and the image the
// opponent is shown.
type CategoryItem struct {
	Name  string `json:"name"`
	Image string `json:"image"`
}

var categories = map[string][]CategoryItem{
	"people": {
		{Name: "محمد صلاح", Image: "https://picsum.photos/seed/salah/200/200"},
		{Name: "عادل إمام", Image: "https://picsum.photos/seed/adel/200/200"},
		{Name: "عمرو دياب", Image: "https://picsum.photos/seed/amr/200/200"},
		{Name: "ليونيل ميسي", Image: "https://picsum.photos/seed/messi/200/200"},
	},
	"food": {
		{Name: "كشري", Image: "https://picsum.photos/seed/koshary/200/200"},
		{Name: "بيتزا", Image: "https://picsum.photos/seed/pizza/200/200"},
		{Name: "شاورما", Image: "https://picsum.photos/seed/shawarma/200/200"},
		{Name: "ملوخية", Image: "https://picsum.photos/seed/molokhia/200/200"},
	},
	"animals": {
		{Name: "أسد", Image: "https://picsum.photos/seed/lion/200/200"},
		{Name: "فيل", Image: "https://picsum.photos/seed/elephant/200/200"},
		{Name: "زرافة", Image: "https://picsum.photos/seed/giraffe/200/200"},
		{Name: "قطة", Image: "https://picsum.photos/seed/cat/200/200"},
	},
	"objects": {
		{Name: "كرسي", Image: "https://picsum.photos/seed/chair/200/200"},
		{Name: "ساعة", Image: "https://picsum.photos/seed/clock/200/200"},
		{Name: "مفتاح", Image: "https://picsum.photos/seed/key/200/200"},
		{Name: "نظارة", Image: "https://picsum.photos/seed/glasses/200/200"},
	},
	"birds": {
		{Name: "ببغاء", Image: "https://picsum.photos/seed/parrot/200/200"},
		{Name: "صقر", Image: "https://picsum.photos/seed/falcon/200/200"},
		{Name: "حمامة", Image: "https://picsum.photos/seed/pigeon/200/200"},
		{Name: "نعامة", Image: "https://picsum.photos/seed/ostrich/200/200"},
	},
	"plants": {
		{Name: "صبار", Image: "https://picsum.photos/seed/cactus/200/200"},
		{Name: "وردة", Image: "https://picsum.photos/seed/rose/200/200"},
		{Name: "شجرة", Image: "https://picsum.photos/seed/tree/200/200"},
		{Name: "نخلة", Image: "https://picsum.photos/seed/palm/200/200"},
	},
	"movies_series": {
		{Name: "لعبة الحبار", Image: "https://picsum.photos/seed/squid/200/200"},
		{Name: "الجوكر", Image: "https://picsum.photos/seed/joker/200/200"},
		{Name: "سبايدر مان", Image: "https://picsum.photos/seed/spiderman/200/200"},
		{Name: "هاري بوتر", Image: "https://picsum.photos/seed/harry/200/200"},
	},
}
