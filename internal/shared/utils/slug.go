package utils

import (
	"regexp"
	"strings"
)

var (
	nonSlugChars = regexp.MustCompile(`[^a-z0-9-]+`)
	multiHyphen  = regexp.MustCompile(`-+`)
)

// GenerateSlug biến title thành tên file an toàn
// "Chương Một: Khởi đầu" → "chuong-mot-khoi-dau"
func GenerateSlug(input string) string {
	ascii := RemoveDiacritics(input)
	lower := strings.ToLower(ascii)

	// Whitespace và dấu câu phổ biến → hyphen
	hyphenated := strings.NewReplacer(" ", "-", "\t", "-", "_", "-", ":", "-", "/", "-", ".", "-").Replace(lower)

	cleaned := nonSlugChars.ReplaceAllString(hyphenated, "")
	normalized := multiHyphen.ReplaceAllString(cleaned, "-")

	return strings.Trim(normalized, "-")
}

// diacritics gom theo base character, mỗi chuỗi chứa mọi biến thể có dấu
var diacritics = map[rune]string{
	'a': "áàảãạăắằẳẵặâấầẩẫậäåā",
	'e': "éèẻẽẹêếềểễệëē",
	'i': "íìỉĩịïî",
	'o': "óòỏõọôốồổỗộơớờởỡợöø",
	'u': "úùủũụưứừửữựüû",
	'y': "ýỳỷỹỵÿ",
	'd': "đ",
	'c': "ç",
	'n': "ñ",
}

var diacriticMap = func() map[rune]rune {
	m := make(map[rune]rune)
	for base, variants := range diacritics {
		upper := []rune(strings.ToUpper(string(base)))[0]
		for _, r := range variants {
			m[r] = base
			for _, ur := range strings.ToUpper(string(r)) {
				m[ur] = upper
			}
		}
	}
	return m
}()

// RemoveDiacritics: tất cả các tone của "a" => "a"
func RemoveDiacritics(input string) string {
	result := make([]rune, 0, len(input))
	for _, r := range input {
		if replacement, ok := diacriticMap[r]; ok {
			result = append(result, replacement)
		} else {
			result = append(result, r)
		}
	}
	return string(result)
}
