package extract

import "testing"

func TestIsDetailLink(t *testing.T) {
	cases := []struct {
		href string
		want bool
	}{
		{"/perfume/Dior/Sauvage-31861.html", true},
		{"https://www.fragrantica.es/perfume/Chanel/Bleu-de-Chanel-9099.html", true},
		{"/perfume/Dior/Sauvage.html", false},
		{"/designers/Dior.html", false},
		{"/noticias/some-article-123.html", false},
		{"", false},
	}
	for _, c := range cases {
		if got := IsDetailLink(c.href); got != c.want {
			t.Errorf("IsDetailLink(%q) = %v, want %v", c.href, got, c.want)
		}
	}
}

func TestOverlayDetailLink(t *testing.T) {
	page := `<html><body>
		<a href="/perfume/Background/Noise-1.html">background link</a>
		<div class="search-overlay">
			<h4>PERFUMES</h4>
			<ul>
				<li><a href="/designers/Dior.html">Dior</a></li>
				<li><a href="/perfume/Dior/Sauvage-31861.html">Sauvage</a></li>
			</ul>
		</div>
	</body></html>`

	href, ok := OverlayDetailLink(page, "PERFUMES")
	if !ok {
		t.Fatal("expected a link")
	}
	if href != "/perfume/Dior/Sauvage-31861.html" {
		t.Errorf("href = %q", href)
	}
}

func TestOverlayDetailLinkIgnoresBackground(t *testing.T) {
	// Heading present but the overlay holds no detail link; the background
	// link outside the container must not be picked up.
	page := `<html><body>
		<a href="/perfume/Background/Noise-1.html">background</a>
		<div role="dialog">
			<h4>PERFUMES</h4>
			<p>Sin resultados</p>
		</div>
	</body></html>`

	if href, ok := OverlayDetailLink(page, "PERFUMES"); ok {
		t.Errorf("expected no link, got %q", href)
	}
}

func TestOverlayDetailLinkNoHeading(t *testing.T) {
	page := `<html><body><a href="/perfume/Dior/Sauvage-31861.html">x</a></body></html>`
	if _, ok := OverlayDetailLink(page, "PERFUMES"); ok {
		t.Error("expected no link without the section heading")
	}
}

func TestOverlayDetailLinkRoleContainer(t *testing.T) {
	// The dialog role wins over class hints even when the heading sits deep
	// inside unrelated wrappers.
	page := `<html><body>
		<div role="dialog">
			<div><div><span>PERFUMES</span></div></div>
			<a href="/perfume/Chanel/No-5-28.html">No 5</a>
		</div>
	</body></html>`

	href, ok := OverlayDetailLink(page, "PERFUMES")
	if !ok || href != "/perfume/Chanel/No-5-28.html" {
		t.Errorf("href = %q, ok = %v", href, ok)
	}
}

func TestFindImageSemanticFirst(t *testing.T) {
	page := `<html><body>
		<div id="mainpic"><img src="/layout.jpg"></div>
		<img itemprop="image" src="/semantic.jpg">
	</body></html>`

	src, strategy, ok := FindImage(page, HTMLStrategies([]string{"#mainpic img"}))
	if !ok {
		t.Fatal("expected an image")
	}
	if src != "/semantic.jpg" || strategy != "itemprop" {
		t.Errorf("src = %q via %q, want semantic strategy first", src, strategy)
	}
}

func TestFindImageLayoutFallback(t *testing.T) {
	page := `<html><body>
		<div class="perfume-big"><img src="https://fimgs.net/photos/perfume/31861.jpg"></div>
	</body></html>`

	src, strategy, ok := FindImage(page, HTMLStrategies([]string{"#mainpic img", ".perfume-big img"}))
	if !ok {
		t.Fatal("expected an image")
	}
	if src != "https://fimgs.net/photos/perfume/31861.jpg" || strategy != "layout" {
		t.Errorf("src = %q via %q", src, strategy)
	}
}

func TestFindImageNone(t *testing.T) {
	page := `<html><body><p>no pictures here</p></body></html>`
	if src, _, ok := FindImage(page, HTMLStrategies(nil)); ok {
		t.Errorf("expected no image, got %q", src)
	}
}

func TestResolveURL(t *testing.T) {
	cases := []struct {
		base, ref, want string
	}{
		{"https://www.fragrantica.es/perfume/Dior/Sauvage-31861.html", "/photos/31861.jpg", "https://www.fragrantica.es/photos/31861.jpg"},
		{"https://www.fragrantica.es/p.html", "https://fimgs.net/x.jpg", "https://fimgs.net/x.jpg"},
		{"https://www.fragrantica.es/a/b.html", "c.jpg", "https://www.fragrantica.es/a/c.jpg"},
	}
	for _, c := range cases {
		if got := ResolveURL(c.base, c.ref); got != c.want {
			t.Errorf("ResolveURL(%q, %q) = %q, want %q", c.base, c.ref, got, c.want)
		}
	}
}

func TestXPathString(t *testing.T) {
	cases := []struct{ in, want string }{
		{"PERFUMES", "'PERFUMES'"},
		{"it's", `"it's"`},
	}
	for _, c := range cases {
		if got := xpathString(c.in); got != c.want {
			t.Errorf("xpathString(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
