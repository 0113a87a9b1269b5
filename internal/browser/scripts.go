package browser

import (
	"encoding/json"
)

const clickScript = `(() => {
	const el = document.getElementById(%s);
	if (!el) return false;
	el.click();
	return true;
})()`

const markPageScript = `window.__cdrAdminPending = true`

const reloadedScript = `window.__cdrAdminPending === undefined && document.readyState === "complete"`

const checkedScript = `(() => {
	const el = document.getElementById(%s);
	return !!(el && el.checked);
})()`

// selectValuesScript takes the picklist id and a JSON array of values and
// returns how many of the values matched an option.
const selectValuesScript = `(() => {
	const el = document.getElementById(%s);
	if (!el) return -1;
	const wanted = new Set(%s);
	let matched = 0;
	for (const opt of el.options) {
		opt.selected = wanted.has(opt.value);
		if (opt.selected) matched++;
	}
	el.dispatchEvent(new Event("change", {bubbles: true}));
	return matched;
})()`

// selectVersionScript takes the picklist id and a JSON string and selects
// the first option whose text contains it.
const selectVersionScript = `(() => {
	const el = document.getElementById(%s);
	if (!el) return false;
	const needle = %s;
	for (const opt of el.options) {
		if (opt.text.includes(needle)) {
			el.value = opt.value;
			el.dispatchEvent(new Event("change", {bubbles: true}));
			return true;
		}
	}
	return false;
})()`

// jsString quotes s as a JavaScript string literal.
func jsString(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}

// jsStrings renders values as a JavaScript array literal.
func jsStrings(values []string) string {
	if values == nil {
		values = []string{}
	}
	b, _ := json.Marshal(values)
	return string(b)
}
