package templates

import (
	"slices"

	"github.com/google/uuid"
	"github.com/jonathan/jobtrail/internal/types"
)

// builtinNamespace seeds the deterministic ids of built-in templates.
var builtinNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://jobtrail/templates/builtin"))

// BuiltinID returns the stable id of the built-in template with the given name.
func BuiltinID(name string) uuid.UUID {
	return uuid.NewSHA1(builtinNamespace, []byte(name))
}

func builtin(name string, typ types.TemplateType, subject, body string, vars []string, isDefault bool) types.Template {
	return types.Template{
		ID:        BuiltinID(name),
		Name:      name,
		Type:      typ,
		Subject:   &subject,
		Body:      body,
		Variables: vars,
		IsDefault: isDefault,
		IsActive:  true,
	}
}

var builtins = []types.Template{
	builtin("Gentle Check-in", types.TemplateFollowUp,
		"Following up on {{role}} at {{company}}",
		`Hi {{name}},

I wanted to gently check in on the {{role}} position at {{company}}.

I understand how busy you must be, and I know these processes take time. I remain very interested in the opportunity and would be happy to provide any additional information that might be helpful.

Thank you for your time,

{{my_name}}`,
		[]string{"name", "role", "company", "my_name"}, true),

	builtin("Market Context", types.TemplateFollowUp,
		"Re: {{role}} at {{company}}",
		`Hi {{name}},

I know the market has been challenging for everyone, and I wanted to check in on the {{role}} role.

No pressure at all - I completely understand if timelines have shifted. Just wanted to express continued interest and see if there's anything I can do to move the process forward.

Best regards,

{{my_name}}`,
		[]string{"name", "role", "company", "my_name"}, false),

	builtin("Reconnection After Move", types.TemplateReconnection,
		"Congratulations on your move to {{new_company}}!",
		`Hi {{name}},

Congratulations on your move to {{new_company}}! I saw the news and wanted to reach out.

We connected back in {{month}} regarding {{old_company}}, and I was hoping we could reconnect. I'm currently exploring opportunities and would love to learn more about {{new_company}} and whether there might be a fit for my background in {{my_skills}}.

Would you have 15 minutes for a quick call sometime?

Best,

{{my_name}}`,
		[]string{"name", "new_company", "old_company", "month", "my_skills", "my_name"}, false),

	builtin("Post-Interview Thank You", types.TemplateInterview,
		"Thank you - {{role}} at {{company}}",
		`Hi {{name}},

Thank you so much for taking the time to meet with me today about the {{role}} role at {{company}}.

I really enjoyed learning more about {{company}} and the team. Our conversation about {{topic_discussed}} resonated with me, and I'm even more excited about the opportunity.

Please don't hesitate to reach out if you need any additional information from me.

Best regards,

{{my_name}}`,
		[]string{"name", "role", "company", "topic_discussed", "my_name"}, false),

	builtin("Still Interested", types.TemplateFollowUp,
		"Still interested in {{role}} at {{company}}",
		`Hi {{name}},

I wanted to reach out to confirm that I'm still very interested in the {{role}} position at {{company}}.

I understand these things take time, and I appreciate your patience. If there's anything I can do to move the process forward or provide additional information, please let me know.

Looking forward to hearing from you.

Best,

{{my_name}}`,
		[]string{"name", "role", "company", "my_name"}, false),

	builtin("Recruiter Initial Outreach", types.TemplateApplication,
		"Re: {{role}} at {{company}} - interested",
		`Hi {{name}},

Thank you for reaching out about the {{role}} role at {{company}}. The opportunity sounds very interesting, and I'd love to learn more.

A bit about my background: {{my_background}}

I'm particularly drawn to {{company}} because {{company_interest}}.

Would you have time for a brief call this week to discuss the role?

Best,

{{my_name}}`,
		[]string{"name", "role", "company", "my_background", "company_interest", "my_name"}, false),

	builtin("Referral Request", types.TemplateReconnection,
		"Quick favor - {{role}} at {{company}}",
		`Hi {{name}},

I hope you're doing well! I wanted to reach out with a quick favor.

I'm currently exploring opportunities and noticed {{company}} has a {{role}} opening that looks like a great fit for my background in {{my_skills}}.

I know referrals go a long way, and I was wondering if you might be able to recommend me or point me to someone who could. I'm happy to share my resume and more details.

Thanks so much for considering!

Best,

{{my_name}}`,
		[]string{"name", "company", "role", "my_skills", "my_name"}, false),

	builtin("Salary Negotiation", types.TemplateApplication,
		"Offer discussion - {{role}} at {{company}}",
		`Hi {{name}},

Thank you for the offer for the {{role}} position at {{company}}. I'm very excited about the opportunity.

After considering the total compensation package, I'd like to discuss the base salary. Based on my experience and market research for similar roles in {{location}}, I was hoping we could explore a base salary in the range of {{target_salary}}.

I'm very enthusiastic about joining {{company}} and believe this adjustment would help align the offer with market standards.

Would you have time for a call to discuss?

Best regards,

{{my_name}}`,
		[]string{"name", "role", "company", "location", "target_salary", "my_name"}, false),

	builtin("Offer Deadline", types.TemplateApplication,
		"Deadline for {{role}} offer at {{company}}",
		`Hi {{name}},

I wanted to touch base about the timeline for the {{role}} offer. I received the official letter and noticed the response deadline is {{deadline}}.

I'm very excited about the opportunity at {{company}} and want to make sure I provide my decision within the timeframe. However, I'm still waiting to hear back from a couple of other processes that should conclude in the next {{timeline}}.

Is it possible to extend the deadline by {{extension_request}}? I want to ensure I give {{company}} a fully considered answer.

Thank you for your understanding.

Best,

{{my_name}}`,
		[]string{"name", "role", "company", "deadline", "timeline", "extension_request", "my_name"}, false),

	builtin("Rejection Thank You", types.TemplateApplication,
		"Thank you - {{role}} at {{company}}",
		`Hi {{name}},

Thank you for letting me know about the decision on the {{role}} position at {{company}}.

Although I'm disappointed, I appreciate the opportunity to learn more about {{company}} and the team. The process was informative, and I have a better understanding of what you're looking for.

I'd love to stay connected for future opportunities that might be a better fit. Please keep me in mind if anything else comes up that aligns with my background in {{my_skills}}.

Thank you again for your time and consideration.

Best regards,

{{my_name}}`,
		[]string{"name", "role", "company", "my_skills", "my_name"}, false),
}

// Builtins returns a copy of the built-in catalogue.
func Builtins() []types.Template {
	out := make([]types.Template, len(builtins))
	for i, t := range builtins {
		t.Variables = slices.Clone(t.Variables)
		out[i] = t
	}
	return out
}

// BuiltinByID returns the built-in template with id, if any.
func BuiltinByID(id uuid.UUID) (types.Template, bool) {
	for _, t := range builtins {
		if t.ID == id {
			t.Variables = slices.Clone(t.Variables)
			return t, true
		}
	}
	return types.Template{}, false
}

// IsBuiltin reports whether id names a built-in template.
func IsBuiltin(id uuid.UUID) bool {
	_, ok := BuiltinByID(id)
	return ok
}

// ByType returns the built-ins of type typ.
func ByType(typ types.TemplateType) []types.Template {
	var out []types.Template
	for _, t := range Builtins() {
		if t.Type == typ {
			out = append(out, t)
		}
	}
	return out
}

// Defaults returns the built-ins flagged is_default.
func Defaults() []types.Template {
	var out []types.Template
	for _, t := range Builtins() {
		if t.IsDefault {
			out = append(out, t)
		}
	}
	return out
}
