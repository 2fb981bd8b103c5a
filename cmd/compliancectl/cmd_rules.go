package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"call-compliance-go/internal/rules"
	"call-compliance-go/internal/types"
)

type ruleView struct {
	Code        string   `json:"code"`
	Name        string   `json:"name"`
	Severity    string   `json:"severity"`
	Method      string   `json:"method"`
	Description string   `json:"description"`
	Triggers    []string `json:"triggers,omitempty"`
}

type campaignView struct {
	Campaign      string                    `json:"campaign"`
	Checklist     []types.ChecklistItemSpec `json:"checklist"`
	Disqualifiers []string                  `json:"disqualifiers"`
}

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List auto-fail rules and campaign checklists",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			campaign, _ := cmd.Flags().GetString("campaign")

			var views []ruleView
			for _, r := range rules.AutoFailRules() {
				views = append(views, ruleView{
					Code:        r.Code.String(),
					Name:        r.Name,
					Severity:    string(r.Severity),
					Method:      string(r.Method),
					Description: r.Description,
					Triggers:    r.Triggers(),
				})
			}
			var camps []campaignView
			for _, c := range []rules.Campaign{rules.CampaignACA, rules.CampaignMedicare} {
				if campaign != "" {
					if resolved, _ := rules.Resolve(campaign); resolved != c {
						continue
					}
				}
				t := rules.Template(c)
				camps = append(camps, campaignView{
					Campaign:      string(c),
					Checklist:     t.Checklist(),
					Disqualifiers: t.Disqualifiers(),
				})
			}

			w := cmd.OutOrStdout()
			if jsonOut {
				return printJSON(w, map[string]interface{}{"rules": views, "campaigns": camps})
			}
			for _, v := range views {
				fmt.Fprintf(w, "%s  %-8s  %s\n", v.Code, v.Severity, v.Name)
			}
			for _, c := range camps {
				fmt.Fprintf(w, "\n%s checklist:\n", c.Campaign)
				for _, it := range c.Checklist {
					crit := ""
					if it.Critical {
						crit = " (critical)"
					}
					fmt.Fprintf(w, "  %-28s %3d%s\n", it.Name, it.Weight, crit)
				}
			}
			return nil
		},
	}
	cmd.Flags().String("campaign", "", "Only show this campaign's checklist")
	return cmd
}
