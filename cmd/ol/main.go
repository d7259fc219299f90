package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"orderline/internal/app"
	"orderline/internal/config"
	"orderline/internal/db"
	"orderline/internal/domain"
	"orderline/internal/engine"
	"orderline/internal/events"
	"orderline/internal/notify"
	"orderline/internal/repo"
	"orderline/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "ol",
	Short: "Orderline CLI",
	Long: `Orderline brokers work orders between clients, executors and one operator.
An order moves editing -> under_review -> awaiting_executor(_broadcast) ->
awaiting_payment -> in_progress -> submitted_for_review -> approved -> completed;
refusals and rejections move it back, cancellation removes it.
View the diary of changes with 'ol log tail'.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("ORDERLINE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().String("actor-id", "", "acting actor identifier")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor-id", rootCmd.PersistentFlags().Lookup("actor-id"))
}

func registerCommands() {
	rootCmd.AddCommand(initCmd())
	rootCmd.AddCommand(orderCmd())
	rootCmd.AddCommand(assignCmd())
	rootCmd.AddCommand(broadcastCmd())
	rootCmd.AddCommand(selfTakeCmd())
	rootCmd.AddCommand(offerCmd())
	rootCmd.AddCommand(payCmd())
	rootCmd.AddCommand(workCmd())
	rootCmd.AddCommand(refuseCmd())
	rootCmd.AddCommand(executorsCmd())
	rootCmd.AddCommand(profileCmd())
	rootCmd.AddCommand(logCmd())
	rootCmd.AddCommand(tokenCmd())
	rootCmd.AddCommand(serveCmd())
}

func initCmd() *cobra.Command {
	var operatorID string
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default orderline.yml",
		RunE: func(cmd *cobra.Command, args []string) error {
			workspace := viper.GetString("workspace")
			path := config.Path(workspace)
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(config.GenerateDefault(operatorID)), 0o644); err != nil {
				return err
			}
			fmt.Println("wrote", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&operatorID, "operator", "", "operator actor id")
	_ = cmd.MarkFlagRequired("operator")
	return cmd
}

func orderCmd() *cobra.Command {
	order := &cobra.Command{Use: "order", Short: "Manage orders"}
	order.AddCommand(orderCreateCmd())
	order.AddCommand(orderEditCmd())
	order.AddCommand(orderConfirmCmd())
	order.AddCommand(orderCancelCmd())
	order.AddCommand(orderListCmd())
	order.AddCommand(orderShowCmd())
	return order
}

func orderCreateCmd() *cobra.Command {
	var subject, workType, deadline, comment, clientName string
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an order draft",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.CreateDraft(ctx, engine.DraftOptions{
					ClientID:   actorID(),
					ClientName: clientName,
					Subject:    subject,
					WorkType:   workType,
					Deadline:   deadline,
					Comment:    comment,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject of the work")
	cmd.Flags().StringVar(&workType, "type", "", "work type")
	cmd.Flags().StringVar(&deadline, "deadline", "", "requested due date")
	cmd.Flags().StringVar(&comment, "comment", "", "comment")
	cmd.Flags().StringVar(&clientName, "name", "", "client display name")
	return cmd
}

func orderEditCmd() *cobra.Command {
	var subject, workType, deadline, comment string
	var guideline, task, example string
	cmd := &cobra.Command{
		Use:   "edit <order-id>",
		Short: "Edit an order draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			opts := engine.DraftUpdateOptions{OrderID: id, ClientID: actorID()}
			if cmd.Flags().Changed("subject") {
				opts.Subject = &subject
			}
			if cmd.Flags().Changed("type") {
				opts.WorkType = &workType
			}
			if cmd.Flags().Changed("deadline") {
				opts.Deadline = &deadline
			}
			if cmd.Flags().Changed("comment") {
				opts.Comment = &comment
			}
			if guideline != "" {
				opts.Guideline = &domain.Blob{Kind: domain.BlobDocument, Ref: guideline}
			}
			if task != "" {
				opts.Task = &domain.Blob{Kind: domain.BlobDocument, Ref: task}
			}
			if example != "" {
				opts.Example = &domain.Blob{Kind: domain.BlobDocument, Ref: example}
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.UpdateDraft(ctx, opts)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&subject, "subject", "", "subject of the work")
	cmd.Flags().StringVar(&workType, "type", "", "work type")
	cmd.Flags().StringVar(&deadline, "deadline", "", "requested due date")
	cmd.Flags().StringVar(&comment, "comment", "", "comment")
	cmd.Flags().StringVar(&guideline, "guideline", "", "guideline blob ref")
	cmd.Flags().StringVar(&task, "task", "", "task blob ref")
	cmd.Flags().StringVar(&example, "example", "", "example blob ref")
	return cmd
}

func orderConfirmCmd() *cobra.Command {
	var name, group, university, gradebook, phone string
	cmd := &cobra.Command{
		Use:   "confirm <order-id>",
		Short: "Confirm an order draft",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			var prof *domain.Profile
			if name != "" || group != "" || university != "" || gradebook != "" || phone != "" {
				prof = &domain.Profile{Name: name, Group: group, University: university, Gradebook: gradebook, Phone: phone}
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.Confirm(ctx, id, actorID(), prof)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "client name")
	cmd.Flags().StringVar(&group, "group", "", "study group")
	cmd.Flags().StringVar(&university, "university", "", "university")
	cmd.Flags().StringVar(&gradebook, "gradebook", "", "gradebook number")
	cmd.Flags().StringVar(&phone, "phone", "", "contact phone")
	return cmd
}

func orderCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Cancel an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				return a.Engine.Cancel(ctx, id, actorID())
			})
		},
	}
	return cmd
}

func orderListCmd() *cobra.Command {
	var status, clientID, executorID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List orders",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				orders, err := a.Engine.ListOrders(ctx, engine.ListFilter{
					Status:     domain.Status(status),
					ClientID:   clientID,
					ExecutorID: executorID,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(orders)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Status", "Subject", "Type", "Client", "Executor", "Price", "Due"})
				for _, o := range orders {
					tw.AppendRow(table.Row{o.ID, o.Status, o.Subject, o.WorkType, o.ClientID, o.ExecutorID, o.FinalPrice, o.DueDate})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().StringVar(&clientID, "client", "", "client filter")
	cmd.Flags().StringVar(&executorID, "executor", "", "executor filter")
	return cmd
}

func orderShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <order-id>",
		Short: "Show an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.GetOrder(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func assignCmd() *cobra.Command {
	var executorID string
	cmd := &cobra.Command{
		Use:   "assign <order-id>",
		Short: "Invite one executor to an order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.AssignExecutor(ctx, id, executorID, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&executorID, "executor", "", "executor id")
	_ = cmd.MarkFlagRequired("executor")
	return cmd
}

func broadcastCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "broadcast <order-id>",
		Short: "Offer an order to all executors",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.Broadcast(ctx, id, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func selfTakeCmd() *cobra.Command {
	var price int
	var deadline, comment string
	cmd := &cobra.Command{
		Use:   "self-take <order-id>",
		Short: "Take an order as the operator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			dl, err := domain.ParseDeadline(deadline)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.SelfTake(ctx, engine.SelfTakeOptions{
					OrderID:  id,
					Price:    price,
					Deadline: dl,
					Comment:  comment,
					ActorID:  adminID(a),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().IntVar(&price, "price", 0, "price for the client")
	cmd.Flags().StringVar(&deadline, "deadline", "", "days, 'until_original', or free text")
	cmd.Flags().StringVar(&comment, "comment", "", "comment for the client")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func offerCmd() *cobra.Command {
	offer := &cobra.Command{Use: "offer", Short: "Offer negotiation"}
	offer.AddCommand(offerSubmitCmd())
	offer.AddCommand(offerDeclineCmd())
	offer.AddCommand(offerApproveCmd())
	offer.AddCommand(offerRejectCmd())
	return offer
}

func offerSubmitCmd() *cobra.Command {
	var price int
	var deadline, comment string
	cmd := &cobra.Command{
		Use:   "submit <order-id>",
		Short: "Submit an offer as an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			dl, err := domain.ParseDeadline(deadline)
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.SubmitOffer(ctx, engine.OfferOptions{
					OrderID:    id,
					ExecutorID: actorID(),
					Price:      price,
					Deadline:   dl,
					Comment:    comment,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().IntVar(&price, "price", 0, "asking price")
	cmd.Flags().StringVar(&deadline, "deadline", "", "days, 'until_original', or free text")
	cmd.Flags().StringVar(&comment, "comment", "", "comment for the admin")
	_ = cmd.MarkFlagRequired("price")
	_ = cmd.MarkFlagRequired("deadline")
	return cmd
}

func offerDeclineCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "decline <order-id>",
		Short: "Decline an invitation as an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.DeclineInvitation(ctx, id, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func offerApproveCmd() *cobra.Command {
	var executorID string
	var price int
	cmd := &cobra.Command{
		Use:   "approve <order-id>",
		Short: "Approve one offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.ApproveOffer(ctx, engine.ApproveOptions{
					OrderID:       id,
					ExecutorID:    executorID,
					PriceOverride: price,
					ActorID:       adminID(a),
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&executorID, "executor", "", "executor whose offer to approve")
	cmd.Flags().IntVar(&price, "price", 0, "override the client price")
	_ = cmd.MarkFlagRequired("executor")
	return cmd
}

func offerRejectCmd() *cobra.Command {
	var executorID string
	cmd := &cobra.Command{
		Use:   "reject <order-id>",
		Short: "Reject one offer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.RejectOffer(ctx, id, executorID, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&executorID, "executor", "", "executor whose offer to reject")
	_ = cmd.MarkFlagRequired("executor")
	return cmd
}

func payCmd() *cobra.Command {
	pay := &cobra.Command{Use: "pay", Short: "Payment sub-flow"}
	pay.AddCommand(payProofCmd())
	pay.AddCommand(payAcceptCmd())
	pay.AddCommand(payRejectCmd())
	pay.AddCommand(payCancelCmd())
	return pay
}

func payProofCmd() *cobra.Command {
	var ref, kind string
	cmd := &cobra.Command{
		Use:   "proof <order-id>",
		Short: "Submit proof of payment as the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.SubmitPaymentProof(ctx, id, actorID(), domain.Blob{
					Kind: domain.BlobKind(kind),
					Ref:  ref,
				})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&ref, "file", "", "proof blob ref")
	cmd.Flags().StringVar(&kind, "kind", "photo", "blob kind (document or photo)")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func payAcceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <order-id>",
		Short: "Accept payment as the admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.AcceptPayment(ctx, id, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func payRejectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reject <order-id>",
		Short: "Reject payment proof as the admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.RejectPayment(ctx, id, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func payCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel <order-id>",
		Short: "Back out of paying as the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.CancelPayment(ctx, id, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func workCmd() *cobra.Command {
	work := &cobra.Command{Use: "work", Short: "Delivery and review"}
	work.AddCommand(workSubmitCmd())
	work.AddCommand(workApproveCmd())
	work.AddCommand(workRejectCmd())
	work.AddCommand(workAcceptCmd())
	work.AddCommand(workReviseCmd())
	return work
}

func workSubmitCmd() *cobra.Command {
	var ref string
	cmd := &cobra.Command{
		Use:   "submit <order-id>",
		Short: "Deliver the work as the executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.SubmitWork(ctx, id, actorID(), domain.Blob{Kind: domain.BlobDocument, Ref: ref})
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&ref, "file", "", "work blob ref")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func workApproveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "approve <order-id>",
		Short: "Approve delivered work as the admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.ApproveWork(ctx, id, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func workRejectCmd() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "reject <order-id>",
		Short: "Send work back for revision as the admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.RejectWork(ctx, id, comment, adminID(a))
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "what to fix")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func workAcceptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "accept <order-id>",
		Short: "Accept the work as the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.AcceptWork(ctx, id, actorID())
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	return cmd
}

func workReviseCmd() *cobra.Command {
	var comment string
	cmd := &cobra.Command{
		Use:   "revise <order-id>",
		Short: "Request a revision as the client",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.RequestRevision(ctx, id, actorID(), comment)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&comment, "comment", "", "what to fix")
	_ = cmd.MarkFlagRequired("comment")
	return cmd
}

func refuseCmd() *cobra.Command {
	var reason, comment string
	cmd := &cobra.Command{
		Use:   "refuse <order-id>",
		Short: "Refuse an in-progress order as the executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseOrderID(args[0])
			if err != nil {
				return err
			}
			return withApp(cmd.Context(), func(ctx context.Context, a *app.App) error {
				o, err := a.Engine.RefuseOrder(ctx, id, actorID(), reason, comment)
				if err != nil {
					return err
				}
				return printJSONOrTable(o)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "refusal reason")
	cmd.Flags().StringVar(&comment, "comment", "", "free-text comment")
	_ = cmd.MarkFlagRequired("reason")
	return cmd
}

func executorsCmd() *cobra.Command {
	ex := &cobra.Command{Use: "executors", Short: "Executor registry"}
	ex.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List registered executors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				items, err := r.ListExecutors(ctx)
				if err != nil {
					return err
				}
				return printJSONOrTable(items)
			})
		},
	})
	addCmd := &cobra.Command{
		Use:   "add <id>",
		Short: "Register an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, _ := cmd.Flags().GetString("name")
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.AddExecutor(ctx, domain.Executor{ID: args[0], Name: name})
			})
		},
	}
	addCmd.Flags().String("name", "", "display name")
	ex.AddCommand(addCmd)
	ex.AddCommand(&cobra.Command{
		Use:   "remove <id>",
		Short: "Remove an executor",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.RemoveExecutor(ctx, args[0])
			})
		},
	})
	return ex
}

func profileCmd() *cobra.Command {
	prof := &cobra.Command{Use: "profile", Short: "Client profiles"}
	prof.AddCommand(&cobra.Command{
		Use:   "show <client-id>",
		Short: "Show a client profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				p, err := r.GetProfile(ctx, args[0])
				if err != nil {
					return err
				}
				return printJSONOrTable(p)
			})
		},
	})
	setCmd := &cobra.Command{
		Use:   "set <client-id>",
		Short: "Save a client profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := domain.Profile{ClientID: args[0]}
			p.Name, _ = cmd.Flags().GetString("name")
			p.Group, _ = cmd.Flags().GetString("group")
			p.University, _ = cmd.Flags().GetString("university")
			p.Gradebook, _ = cmd.Flags().GetString("gradebook")
			p.Phone, _ = cmd.Flags().GetString("phone")
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.UpsertProfile(ctx, p)
			})
		},
	}
	setCmd.Flags().String("name", "", "client name")
	setCmd.Flags().String("group", "", "study group")
	setCmd.Flags().String("university", "", "university")
	setCmd.Flags().String("gradebook", "", "gradebook number")
	setCmd.Flags().String("phone", "", "contact phone")
	prof.AddCommand(setCmd)
	return prof
}

func logCmd() *cobra.Command {
	lg := &cobra.Command{Use: "log", Short: "Event log"}
	tail := &cobra.Command{
		Use:   "tail",
		Short: "Show recent events",
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, _ := cmd.Flags().GetInt("limit")
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				rd := events.Reader{DB: r.DB}
				evts, err := rd.Tail(ctx, limit)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(evts)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "TS", "Type", "Order", "Actor"})
				for _, e := range evts {
					tw.AppendRow(table.Row{e.ID, e.TS, e.Type, e.OrderID, e.ActorID})
				}
				tw.Render()
				return nil
			})
		},
	}
	tail.Flags().Int("limit", 20, "events to show")
	lg.AddCommand(tail)
	return lg
}

func tokenCmd() *cobra.Command {
	var role string
	var ttl time.Duration
	cmd := &cobra.Command{
		Use:   "token <actor-id>",
		Short: "Issue an API bearer token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			token, err := server.IssueToken(cfg.Server.JWTSecret, args[0], domain.Role(role), ttl)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&role, "role", "client", "client, executor or admin")
	cmd.Flags().DurationVar(&ttl, "ttl", 24*time.Hour, "token lifetime")
	return cmd
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := app.Open(viper.GetString("workspace"))
			if err != nil {
				return err
			}
			defer a.Close()
			if addr == "" {
				addr = a.Config.Server.Addr
			}
			handler, err := server.New(server.Config{Engine: a.Engine, BasePath: basePath})
			if err != nil {
				return err
			}
			if len(a.Config.Webhooks) > 0 {
				pump := notify.NewWebhookPump(events.Reader{DB: a.DB}, a.Engine.Repo, a.Config.Webhooks)
				go pump.Run(cmd.Context())
			}
			srv := &http.Server{Addr: addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			fmt.Printf("Serving Orderline API on http://%s%s\n", addr, basePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to config)")
	cmd.Flags().StringVar(&basePath, "base-path", "/v0", "API base path")
	return cmd
}

func withApp(ctx context.Context, fn func(context.Context, *app.App) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a)
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	a, err := app.Open(viper.GetString("workspace"))
	if err != nil {
		return err
	}
	defer a.Close()
	return fn(ctx, a.Engine.Repo)
}

func actorID() string {
	return viper.GetString("actor-id")
}

// adminID defaults admin commands to the configured operator when no
// actor is set explicitly.
func adminID(a *app.App) string {
	if id := viper.GetString("actor-id"); id != "" {
		return id
	}
	return a.Config.Operator.ID
}

func parseOrderID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid order id %q", s)
	}
	return id, nil
}

func printJSONOrTable(v any) error {
	if viper.GetBool("json") {
		return printJSON(v)
	}
	switch t := v.(type) {
	case domain.Order:
		renderOrder(os.Stdout, t)
	case []domain.Executor:
		renderExecutors(os.Stdout, t)
	case domain.Profile:
		renderProfile(os.Stdout, t)
	default:
		return printJSON(v)
	}
	return nil
}

func renderOrder(w io.Writer, o domain.Order) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRow(table.Row{"ID", o.ID})
	tw.AppendRow(table.Row{"Status", o.Status})
	tw.AppendRow(table.Row{"Client", o.ClientID})
	tw.AppendRow(table.Row{"Subject", o.Subject})
	tw.AppendRow(table.Row{"Type", o.WorkType})
	if o.Deadline != "" {
		tw.AppendRow(table.Row{"Deadline", o.Deadline})
	}
	if o.ExecutorID != "" {
		tw.AppendRow(table.Row{"Executor", o.ExecutorID})
	}
	if o.FinalPrice > 0 {
		tw.AppendRow(table.Row{"Price", o.FinalPrice})
	}
	if o.DueDate != "" {
		tw.AppendRow(table.Row{"Due", o.DueDate})
	}
	for _, of := range o.Offers {
		tw.AppendRow(table.Row{"Offer", fmt.Sprintf("%s: %d, %s", of.ExecutorID, of.Price, of.Deadline.String())})
	}
	tw.Render()
}

func renderExecutors(w io.Writer, items []domain.Executor) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendHeader(table.Row{"ID", "Name"})
	for _, ex := range items {
		tw.AppendRow(table.Row{ex.ID, ex.Name})
	}
	tw.Render()
}

func renderProfile(w io.Writer, p domain.Profile) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.AppendRow(table.Row{"Client", p.ClientID})
	if p.Name != "" {
		tw.AppendRow(table.Row{"Name", p.Name})
	}
	if p.Group != "" {
		tw.AppendRow(table.Row{"Group", p.Group})
	}
	if p.University != "" {
		tw.AppendRow(table.Row{"University", p.University})
	}
	if p.Gradebook != "" {
		tw.AppendRow(table.Row{"Gradebook", p.Gradebook})
	}
	if p.Phone != "" {
		tw.AppendRow(table.Row{"Phone", p.Phone})
	}
	tw.Render()
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
