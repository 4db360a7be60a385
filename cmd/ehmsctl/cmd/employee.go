package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// Employee represents an employee response
type Employee struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Role       string `json:"role"`
	Department string `json:"department,omitempty"`
	CreatedAt  string `json:"created_at"`
}

var employeeCmd = &cobra.Command{
	Use:   "employee",
	Short: "Manage employees",
	Long:  `Commands for the employee directory. Requires --token or EHMS_TOKEN.`,
}

var employeeListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all employees",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, bearer)
		data, err := client.Request("GET", apiPath("/employee"), nil)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var employees []Employee
		if err := json.Unmarshal(data, &employees); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}

		if len(employees) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No employees found.")
			return nil
		}

		printTable(cmd.OutOrStdout(), []string{"ID", "NAME", "EMAIL", "ROLE", "DEPARTMENT"}, employeeRows(employees))
		return nil
	},
}

var (
	employeeName       string
	employeeEmail      string
	employeeRole       string
	employeeDepartment string
)

var employeeCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an employee (Admin token required)",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := NewClient(serverURL, bearer)
		body := map[string]string{
			"name":       employeeName,
			"email":      employeeEmail,
			"role":       employeeRole,
			"department": employeeDepartment,
		}

		data, err := client.Request("POST", apiPath("/employee"), body)
		if err != nil {
			return err
		}

		if output == "json" {
			return printJSON(cmd.OutOrStdout(), data)
		}

		var e Employee
		if err := json.Unmarshal(data, &e); err != nil {
			return fmt.Errorf("failed to parse response: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Employee created: %s (%s)\n", e.ID, e.Name)
		return nil
	},
}

func employeeRows(employees []Employee) [][]string {
	rows := make([][]string, len(employees))
	for i, e := range employees {
		rows[i] = []string{e.ID, e.Name, e.Email, e.Role, e.Department}
	}
	return rows
}

func init() {
	employeeCmd.AddCommand(employeeListCmd)
	employeeCmd.AddCommand(employeeCreateCmd)

	employeeCreateCmd.Flags().StringVar(&employeeName, "name", "", "Full name")
	employeeCreateCmd.Flags().StringVar(&employeeEmail, "email", "", "Email address")
	employeeCreateCmd.Flags().StringVar(&employeeRole, "role", "", "Role: Technician, Admin, Doctor or Employee")
	employeeCreateCmd.Flags().StringVar(&employeeDepartment, "department", "", "Department")
	_ = employeeCreateCmd.MarkFlagRequired("name")
	_ = employeeCreateCmd.MarkFlagRequired("email")
	_ = employeeCreateCmd.MarkFlagRequired("role")
}
