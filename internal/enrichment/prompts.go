package enrichment

import "fmt"

const (
	salarySystem   = "You are a data normalization assistant for Hungarian job salary information."
	categorySystem = "You are a job categorization assistant."
	skillsSystem   = "You are a skill extraction assistant."
	levelSystem    = "You are a job experience level classifier."
)

func salaryPrompt(text string) string {
	return fmt.Sprintf(`Normalize this Hungarian job salary information to structured data:

Input: %q

Output format (JSON):
{
    "min": <minimum salary as integer>,
    "max": <maximum salary as integer>,
    "currency": "HUF",
    "period": "monthly" or "yearly" or "hourly"
}

Examples:
- "450-650 ezer Ft/hó" -> {"min": 450000, "max": 650000, "currency": "HUF", "period": "monthly"}
- "6-8 millió Ft/év" -> {"min": 6000000, "max": 8000000, "currency": "HUF", "period": "yearly"}
- "2500 Ft/óra" -> {"min": 2500, "max": 2500, "currency": "HUF", "period": "hourly"}

Only return the JSON, nothing else.`, text)
}

func categoryPrompt(title, description string) string {
	return fmt.Sprintf(`Categorize this Hungarian job posting into ONE of these categories:
- IT (Information Technology, Software Development, DevOps)
- Engineering (Mechanical, Electrical, Civil Engineering)
- Sales (Sales Representative, Account Manager)
- Marketing (Digital Marketing, Content Marketing, SEO)
- HR (Human Resources, Recruitment)
- Finance (Accounting, Financial Analysis, Banking)
- Operations (Logistics, Supply Chain, Production)
- Legal (Lawyer, Legal Counsel)
- Healthcare (Doctor, Nurse, Medical)
- Education (Teacher, Trainer)
- Other

Job Title: %q
Description: %q

Output: Only the category name, nothing else.`, title, description)
}

func skillsPrompt(description string) string {
	return fmt.Sprintf(`Extract required technical and soft skills from this Hungarian job description.

Job Description:
%q

Output format: JSON array of skills
Example: ["Python", "SQL", "Communication", "Problem Solving", "Git"]

Return only the JSON array, nothing else.`, description)
}

func levelPrompt(title, description string) string {
	return fmt.Sprintf(`Determine the experience level for this Hungarian job posting.

Levels: junior, medior, senior, lead, executive

Job Title: %q
Description: %q

Output: Only the level name, nothing else.`, title, description)
}
