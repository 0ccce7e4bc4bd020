package dom

import "testing"

func visibleStyle() Style {
	return Style{Display: "block", Visibility: "visible", Opacity: "1", Position: "static", ClipPath: "none", UserSelect: "auto"}
}

func elem(tag string, w, h float64, children int) *Node {
	return &Node{
		ID:            1,
		Type:          ElementNode,
		Tag:           tag,
		Style:         visibleStyle(),
		Rect:          Rect{Width: w, Height: h},
		ChildElements: children,
	}
}

func TestIsHoverable_NodeTypes(t *testing.T) {
	if !IsHoverable(&Node{Type: TextNode}) {
		t.Error("text node: got false, want true")
	}
	if IsHoverable(&Node{Type: CommentNode}) {
		t.Error("comment node: got true, want false")
	}
	if IsHoverable(&Node{Type: OtherNode}) {
		t.Error("other node: got true, want false")
	}
	if IsHoverable(nil) {
		t.Error("nil node: got true, want false")
	}
}

func TestIsHoverable_NonContentTags(t *testing.T) {
	for _, tag := range []string{"SCRIPT", "STYLE", "HEAD", "NOSCRIPT", "META", "link"} {
		if IsHoverable(elem(tag, 10, 10, 0)) {
			t.Errorf("%s: got true, want false", tag)
		}
	}
	if !IsHoverable(elem("SPAN", 10, 10, 0)) {
		t.Error("SPAN: got false, want true")
	}
}

func TestIsHoverable_StyleRules(t *testing.T) {
	cases := []struct {
		name  string
		style func(*Style)
		want  bool
	}{
		{"display none", func(s *Style) { s.Display = "none" }, false},
		{"visibility hidden", func(s *Style) { s.Visibility = "hidden" }, false},
		{"opacity 0", func(s *Style) { s.Opacity = "0" }, false},
		{"opacity 0.0", func(s *Style) { s.Opacity = "0.0" }, false},
		{"opacity 0.5", func(s *Style) { s.Opacity = "0.5" }, true},
		{"fixed with full clip", func(s *Style) { s.Position = "fixed"; s.ClipPath = "inset(100%)" }, false},
		{"fixed with spaced clip", func(s *Style) { s.Position = "fixed"; s.ClipPath = "inset( 100% )" }, false},
		{"fixed without clip", func(s *Style) { s.Position = "fixed" }, true},
		{"absolute with full clip", func(s *Style) { s.Position = "absolute"; s.ClipPath = "inset(100%)" }, true},
	}
	for _, tc := range cases {
		n := elem("DIV", 10, 10, 0)
		tc.style(&n.Style)
		if got := IsHoverable(n); got != tc.want {
			t.Errorf("%s: got %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestIsHoverable_ZeroSizeWrapper(t *testing.T) {
	if !IsHoverable(elem("DIV", 0, 0, 2)) {
		t.Error("zero-size div with children: got false, want true")
	}
	if IsHoverable(elem("DIV", 0, 20, 0)) {
		t.Error("zero-width childless div: got true, want false")
	}
	if IsHoverable(elem("DIV", 20, 0, 0)) {
		t.Error("zero-height childless div: got true, want false")
	}
}

func TestIsHoverable_ZeroSizeImage(t *testing.T) {
	if IsHoverable(elem("IMG", 0, 0, 0)) {
		t.Error("zero-size img: got true, want false")
	}
	if IsHoverable(elem("IMG", 0, 0, 1)) {
		t.Error("zero-size img with children: got true, want false")
	}
	if !IsHoverable(elem("IMG", 16, 16, 0)) {
		t.Error("sized img: got false, want true")
	}
}

func TestIsHoverable_UserSelectNone(t *testing.T) {
	n := elem("DIV", 0, 0, 3)
	n.Style.UserSelect = "none"
	if IsHoverable(n) {
		t.Error("user-select none wrapper: got true, want false")
	}
	n = elem("P", 100, 20, 0)
	n.Style.UserSelect = " none "
	if IsHoverable(n) {
		t.Error("user-select none paragraph: got true, want false")
	}
}

func TestUserSelectValue(t *testing.T) {
	n := elem("DIV", 1, 1, 0)
	n.Style.UserSelect = "text"
	if got := UserSelectValue(n); got != "text" {
		t.Errorf("UserSelectValue: got %q, want %q", got, "text")
	}
	if got := UserSelectValue(&Node{Type: TextNode, Style: Style{UserSelect: "none"}}); got != "" {
		t.Errorf("UserSelectValue(text): got %q, want empty", got)
	}
}
