package model

// Genre là tập đóng các thể loại sách
type Genre string

const (
	GenreFiction        Genre = "Fiction"
	GenreNonFiction     Genre = "Non-Fiction"
	GenreMystery        Genre = "Mystery"
	GenreRomance        Genre = "Romance"
	GenreScienceFiction Genre = "Science Fiction"
	GenreFantasy        Genre = "Fantasy"
	GenreBiography      Genre = "Biography"
	GenreHistory        Genre = "History"
	GenreSelfHelp       Genre = "Self-Help"
	GenreBusiness       Genre = "Business"
	GenreThriller       Genre = "Thriller"
	GenreHorror         Genre = "Horror"
	GenreChildren       Genre = "Children"
	GenreYoungAdult     Genre = "Young Adult"
	GenrePoetry         Genre = "Poetry"
	GenrePhilosophy     Genre = "Philosophy"
	GenrePsychology     Genre = "Psychology"
	GenreHealth         Genre = "Health"
	GenreTravel         Genre = "Travel"
	GenreCooking        Genre = "Cooking"
	GenreArt            Genre = "Art"
	GenreReligion       Genre = "Religion"
	GenrePolitics       Genre = "Politics"
	GenreTechnology     Genre = "Technology"
	GenreEducation      Genre = "Education"
	GenreOther          Genre = "Other"
)

// AllGenres giữ đúng thứ tự hiển thị gốc
var AllGenres = []Genre{
	GenreFiction, GenreNonFiction, GenreMystery, GenreRomance, GenreScienceFiction,
	GenreFantasy, GenreBiography, GenreHistory, GenreSelfHelp, GenreBusiness,
	GenreThriller, GenreHorror, GenreChildren, GenreYoungAdult, GenrePoetry,
	GenrePhilosophy, GenrePsychology, GenreHealth, GenreTravel, GenreCooking,
	GenreArt, GenreReligion, GenrePolitics, GenreTechnology, GenreEducation,
	GenreOther,
}

var genreSet = func() map[Genre]struct{} {
	m := make(map[Genre]struct{}, len(AllGenres))
	for _, g := range AllGenres {
		m[g] = struct{}{}
	}
	return m
}()

func (g Genre) IsValid() bool {
	_, ok := genreSet[g]
	return ok
}

func (g Genre) String() string {
	return string(g)
}

// genreValues dùng cho validation.In
func genreValues() []interface{} {
	values := make([]interface{}, len(AllGenres))
	for i, g := range AllGenres {
		values[i] = string(g)
	}
	return values
}
