package badge

// Badge maps a language name to the classes of its label.
type Badge struct {
	Language string `json:"language" yaml:"language"`
	Classes  string `json:"classes" yaml:"classes"`
}

// DefaultClasses colour every language missing from the table.
const DefaultClasses = "bg-gray-100 text-gray-800 border-gray-200"

// Seed provides the built-in language colours.
func Seed() []Badge {
	return []Badge{
		{Language: "JavaScript", Classes: "bg-yellow-100 text-yellow-800 border-yellow-200"},
		{Language: "Python", Classes: "bg-blue-100 text-blue-800 border-blue-200"},
		{Language: "Java", Classes: "bg-red-100 text-red-800 border-red-200"},
		{Language: "TypeScript", Classes: "bg-blue-100 text-blue-800 border-blue-200"},
		{Language: "Ruby", Classes: "bg-red-100 text-red-800 border-red-200"},
		{Language: "PHP", Classes: "bg-purple-100 text-purple-800 border-purple-200"},
		{Language: "CSS", Classes: "bg-pink-100 text-pink-800 border-pink-200"},
		{Language: "HTML", Classes: "bg-orange-100 text-orange-800 border-orange-200"},
	}
}
