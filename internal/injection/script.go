// Package injection synthesizes the JavaScript payloads that locate a
// provider's prompt input, fill it, and trigger submission. Synthesis is a
// pure function of its inputs: identical selector chains and prompt text
// always produce byte-identical scripts.
package injection

import (
	"fmt"
	"strings"

	jsoniter "github.com/json-iterator/go"

	"github.com/xkilldash9x/promptfan/api/schemas"
)

// settleDelayMs gives reactive front-ends a beat to process the input event
// before the submit selector chain is probed.
const settleDelayMs = 100

// jsEscaper rewrites every character that could terminate a double-quoted JS
// string literal or smuggle code into it. U+2028 and U+2029 are line
// terminators inside JS string literals even though they are valid JSON.
var jsEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`'`, `\'`,
	"\n", `\n`,
	"\r", `\r`,
	"\t", `\t`,
	"\u2028", `\u2028`,
	"\u2029", `\u2029`,
)

// injectionTemplate is the delivery payload. It resolves to a promise so the
// executor can await the post-settle submit phase; every fault path resolves
// (never rejects) with a structured outcome object.
const injectionTemplate = `(function() {
    return new Promise(function(resolve) {
        try {
            var inputSelectors = %s;
            var inputElement = null;
            for (var i = 0; i < inputSelectors.length; i++) {
                inputElement = document.querySelector(inputSelectors[i]);
                if (inputElement) { break; }
            }

            if (!inputElement) {
                resolve({
                    success: false,
                    element_found: false,
                    submit_triggered: false,
                    error_message: 'Input element not found. Tried selectors: ' + inputSelectors.join(', ')
                });
                return;
            }

            var prompt = %s;
            if (inputElement.tagName === 'TEXTAREA' || inputElement.tagName === 'INPUT') {
                inputElement.value = prompt;
                inputElement.dispatchEvent(new Event('input', { bubbles: true }));
                inputElement.dispatchEvent(new Event('change', { bubbles: true }));
            } else if (inputElement.isContentEditable || inputElement.getAttribute('contenteditable') === 'true') {
                inputElement.textContent = prompt;
                inputElement.dispatchEvent(new Event('input', { bubbles: true }));
            } else {
                inputElement.value = prompt;
                inputElement.dispatchEvent(new Event('input', { bubbles: true }));
            }

            setTimeout(function() {
                try {
                    var submitSelectors = %s;
                    var submitButton = null;
                    for (var j = 0; j < submitSelectors.length; j++) {
                        submitButton = document.querySelector(submitSelectors[j]);
                        if (submitButton) { break; }
                    }

                    if (!submitButton) {
                        resolve({
                            success: false,
                            element_found: true,
                            submit_triggered: false,
                            error_message: 'Submit button not found. Tried selectors: ' + submitSelectors.join(', ')
                        });
                        return;
                    }

                    submitButton.click();
                    resolve({
                        success: true,
                        element_found: true,
                        submit_triggered: true,
                        error_message: null
                    });
                } catch (err) {
                    resolve({
                        success: false,
                        element_found: false,
                        submit_triggered: false,
                        error_message: 'JavaScript error: ' + err.message
                    });
                }
            }, %d);
        } catch (err) {
            resolve({
                success: false,
                element_found: false,
                submit_triggered: false,
                error_message: 'JavaScript error: ' + err.message
            });
        }
    });
})()`

// BuildScript synthesizes the injection payload for one provider. Selector
// order is preserved in the emitted array literals; the first selector that
// resolves wins at runtime.
func BuildScript(inputSelectors, submitSelectors []string, prompt string) string {
	return fmt.Sprintf(injectionTemplate,
		selectorArray(inputSelectors),
		escapeJSString(prompt),
		selectorArray(submitSelectors),
		settleDelayMs,
	)
}

// authCheckTemplate reports whether any "still needs login" marker is
// present on the page.
const authCheckTemplate = `(function() {
    try {
        var authSelectors = %s;
        for (var i = 0; i < authSelectors.length; i++) {
            if (document.querySelector(authSelectors[i])) {
                return { authenticated: false, marker: authSelectors[i] };
            }
        }
        return { authenticated: true, marker: null };
    } catch (err) {
        return { authenticated: false, marker: null, error_message: 'JavaScript error: ' + err.message };
    }
})()`

// BuildAuthCheckScript synthesizes a probe for the provider's login markers.
// The page counts as authenticated when none of the selectors match.
func BuildAuthCheckScript(authSelectors []string) string {
	return fmt.Sprintf(authCheckTemplate, selectorArray(authSelectors))
}

// escapeJSString wraps text in a double-quoted JS string literal that cannot
// be terminated early by its contents.
func escapeJSString(text string) string {
	return `"` + jsEscaper.Replace(text) + `"`
}

// selectorArray renders selectors as a JS array literal, preserving order.
func selectorArray(selectors []string) string {
	quoted := make([]string, len(selectors))
	for i, s := range selectors {
		quoted[i] = escapeJSString(s)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// AuthCheckResult is the decoded result of an auth-check probe.
type AuthCheckResult struct {
	Authenticated bool   `json:"authenticated"`
	Marker        string `json:"marker,omitempty"`
	ErrorMessage  string `json:"error_message,omitempty"`
}

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ParseOutcome decodes the JSON object an injection script resolved with.
func ParseOutcome(raw []byte) (schemas.InjectionOutcome, error) {
	var outcome schemas.InjectionOutcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		return schemas.InjectionOutcome{}, fmt.Errorf("failed to parse injection outcome: %w", err)
	}
	return outcome, nil
}

// ParseAuthCheck decodes the JSON object an auth-check script returned.
func ParseAuthCheck(raw []byte) (AuthCheckResult, error) {
	var result AuthCheckResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return AuthCheckResult{}, fmt.Errorf("failed to parse auth check result: %w", err)
	}
	return result, nil
}
