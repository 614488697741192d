package navigate

// JavaScript evaluated in the page for the heuristics that need live layout.
// The detail-link pattern mirrors extract.IsDetailLink.

// jsClickDetailLink clicks the anchor whose href attribute equals the given
// value and returns its absolute URL, or "" when no such anchor exists.
const jsClickDetailLink = `(href) => {
	for (const a of document.querySelectorAll("a[href]")) {
		if (a.getAttribute("href") === href) {
			a.click();
			return a.href;
		}
	}
	return "";
}`

// jsDropdownClick is the secondary result-selection heuristic, used when no
// overlay container is identifiable in the page HTML: consider every
// detail-page link rendered within the dropdown's vertical band near the top
// of the viewport, and hit-test its center so links hidden under other
// overlays are rejected. Clicks the first survivor and returns its URL.
const jsDropdownClick = `() => {
	const pattern = /\/perfume\/[^/]+\/[^/]+-\d+\.html/;
	for (const a of document.querySelectorAll("a[href*='/perfume/']")) {
		const rect = a.getBoundingClientRect();
		if (rect.width > 0 && rect.height > 0 && rect.top > 50 && rect.top < 600) {
			const href = a.getAttribute("href") || "";
			if (pattern.test(href)) {
				const topEl = document.elementFromPoint(rect.left + rect.width / 2, rect.top + rect.height / 2);
				if (a.contains(topEl) || (topEl && topEl.closest("a") === a)) {
					a.click();
					return a.href || (window.location.origin + href);
				}
			}
		}
	}
	return "";
}`

// jsAssetHostImage is the last-resort image strategy: any image served from a
// known asset-host domain whose rendered width clears the threshold.
const jsAssetHostImage = `(hosts, minWidth) => {
	for (const img of document.querySelectorAll("img")) {
		const src = img.src || "";
		if (hosts.some((h) => src.includes(h)) && img.width > minWidth) {
			return src;
		}
	}
	return "";
}`
